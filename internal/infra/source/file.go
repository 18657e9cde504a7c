package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/eventplayer/internal/domain/audio"
)

// Supported file extensions.
const (
	extWAV  = ".wav"
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extPCM  = ".pcm"
	extRAW  = ".raw"
)

// ErrUnsupportedFormat is returned for files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// TrackInfo holds tag metadata for an audio file.
type TrackInfo struct {
	Path   string
	Title  string
	Artist string
	Album  string
	Format string
}

// IsSupported reports whether OpenFile can play the file at path.
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case extWAV, extMP3, extFLAC, extPCM, extRAW:
		return true
	default:
		return false
	}
}

// OpenFile opens an audio file and returns a source for it, choosing the
// decoder by extension. Raw .pcm/.raw files must already be 48 kHz stereo
// s16le.
func OpenFile(path string) (audio.Source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupported(path) {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open audio file")
	}

	if ext == extPCM || ext == extRAW {
		return NewPCMSource(f), nil
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case extWAV:
		streamer, format, err = wav.Decode(f)
	case extMP3:
		streamer, format, err = mp3.Decode(f)
	case extFLAC:
		streamer, format, err = flac.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to decode %s", filepath.Base(path))
	}

	zlog.Debug().Msgf("source: opened %s: rate=%d channels=%d length=%v",
		filepath.Base(path), format.SampleRate, format.NumChannels, format.SampleRate.D(streamer.Len()))

	// The decoder closes f.
	return NewStreamerSource(streamer, format, streamer), nil
}

// ReadTrackInfo reads tag metadata from the file at path. The title falls
// back to the file name when the file carries no tags.
func ReadTrackInfo(path string) (*TrackInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open audio file")
	}
	defer f.Close()

	info := &TrackInfo{
		Path:   path,
		Title:  filepath.Base(path),
		Format: strings.TrimPrefix(strings.ToUpper(filepath.Ext(path)), "."),
	}

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return info, nil
		}
		return nil, errors.Wrap(err, "failed to read tags")
	}

	if m.Title() != "" {
		info.Title = m.Title()
	}
	info.Artist = m.Artist()
	info.Album = m.Album()
	if m.FileType() != tag.UnknownFileType {
		info.Format = string(m.FileType())
	}
	return info, nil
}

