package source

import (
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/eventplayer/internal/domain/audio"
)

// Source kinds accepted by New.
const (
	KindFile  = "file"
	KindTone  = "tone"
	KindStdin = "stdin"
)

// Settings represents the settings of a configured source.
type Settings struct {
	Path        string  `mapstructure:"path"`
	Frequency   float64 `mapstructure:"frequency" default:"440" validate:"gt=0,lt=24000"`
	DurationSec float64 `mapstructure:"duration_sec" default:"3" validate:"gt=0"`
}

// Duration returns DurationSec as a time.Duration.
func (s Settings) Duration() time.Duration {
	return time.Duration(s.DurationSec * float64(time.Second))
}

// DecodeSettings decodes a settings map, applies defaults and validates it.
func DecodeSettings(settings map[string]any) (*Settings, error) {
	var cfg Settings

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid source settings")
	}

	return &cfg, nil
}

// New builds a source of the given kind. stdin is read by the stdin kind.
func New(kind string, settings map[string]any, stdin io.Reader) (audio.Source, error) {
	cfg, err := DecodeSettings(settings)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindFile:
		if cfg.Path == "" {
			return nil, errors.New("file source requires a path")
		}
		return OpenFile(cfg.Path)
	case KindTone:
		tone, err := NewTone(cfg.Frequency, cfg.Duration())
		if err != nil {
			return nil, err
		}
		return tone, nil
	case KindStdin:
		return NewPCMSource(stdin), nil
	default:
		return nil, errors.Newf("unknown source type %q", kind)
	}
}
