// Package source provides audio.Source implementations: raw PCM readers,
// decoded audio files and synthesized tones.
package source

import (
	"io"

	"github.com/cockroachdb/errors"

	"github.com/osa030/eventplayer/internal/domain/audio"
)

// PCMSource reads frames of raw 48 kHz stereo s16le PCM from a reader.
type PCMSource struct {
	r    io.Reader
	done bool
}

// NewPCMSource creates a PCMSource. If r is an io.Closer it is closed once
// the stream ends.
func NewPCMSource(r io.Reader) *PCMSource {
	return &PCMSource{r: r}
}

// ProvideFrame implements audio.Source.
// A trailing partial frame is zero-padded.
func (s *PCMSource) ProvideFrame() (audio.Frame, error) {
	if s.done {
		return nil, io.EOF
	}

	frame := make(audio.Frame, audio.FrameSize)
	n, err := io.ReadFull(s.r, frame)
	switch {
	case err == nil:
		return frame, nil
	case errors.Is(err, io.ErrUnexpectedEOF) && n > 0:
		s.finish()
		return frame, nil
	case errors.Is(err, io.EOF):
		s.finish()
		return nil, io.EOF
	default:
		s.finish()
		return nil, errors.Wrap(err, "failed to read pcm frame")
	}
}

func (s *PCMSource) finish() {
	s.done = true
	if c, ok := s.r.(io.Closer); ok {
		_ = c.Close()
	}
}
