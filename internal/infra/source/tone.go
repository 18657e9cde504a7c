package source

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"

	"github.com/osa030/eventplayer/internal/domain/audio"
)

// NewTone returns a source playing a sine tone of freq Hz for d.
func NewTone(freq float64, d time.Duration) (*StreamerSource, error) {
	sr := beep.SampleRate(audio.SampleRate)
	sine, err := generators.SineTone(sr, freq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create sine tone")
	}
	format := beep.Format{SampleRate: sr, NumChannels: audio.Channels, Precision: audio.BytesPerSample}
	return NewStreamerSource(beep.Take(sr.N(d), sine), format, nil), nil
}
