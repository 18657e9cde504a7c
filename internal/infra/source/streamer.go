package source

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/eventplayer/internal/domain/audio"
)

// resampleQuality is the interpolation quality passed to beep.Resample.
const resampleQuality = 4

// StreamerSource converts a beep.Streamer into 20 ms PCM frames.
type StreamerSource struct {
	streamer beep.Streamer
	closer   io.Closer
	buf      [][2]float64
	done     bool
	err      error
}

// NewStreamerSource wraps s, resampling from format's rate to 48 kHz when
// they differ. closer may be nil; otherwise it is closed at end-of-stream.
func NewStreamerSource(s beep.Streamer, format beep.Format, closer io.Closer) *StreamerSource {
	target := beep.SampleRate(audio.SampleRate)
	var playStreamer = s
	if format.SampleRate != target {
		playStreamer = beep.Resample(resampleQuality, format.SampleRate, target, s)
	}
	return &StreamerSource{
		streamer: playStreamer,
		closer:   closer,
		buf:      make([][2]float64, audio.SamplesPerFrame),
	}
}

// ProvideFrame implements audio.Source.
func (s *StreamerSource) ProvideFrame() (audio.Frame, error) {
	if s.done {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}

	filled := 0
	for filled < len(s.buf) {
		n, ok := s.streamer.Stream(s.buf[filled:])
		filled += n
		if !ok || n == 0 {
			break
		}
	}

	if filled == 0 {
		s.finish()
		return s.ProvideFrame()
	}

	frame := make(audio.Frame, audio.FrameSize)
	for i := 0; i < filled; i++ {
		off := i * audio.Channels * audio.BytesPerSample
		binary.LittleEndian.PutUint16(frame[off:], uint16(toInt16(s.buf[i][0])))   //nolint:gosec // audio samples
		binary.LittleEndian.PutUint16(frame[off+2:], uint16(toInt16(s.buf[i][1]))) //nolint:gosec // audio samples
	}
	if filled < len(s.buf) {
		s.finish()
	}
	return frame, nil
}

// finish marks the stream as ended and records any decoder error so that
// it is reported after the last partial frame.
func (s *StreamerSource) finish() {
	s.done = true
	if err := s.streamer.Err(); err != nil {
		s.err = errors.Wrap(err, "failed to stream audio")
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			zlog.Warn().Err(err).Msg("source: failed to close decoder")
		}
	}
}

// toInt16 converts a [-1, 1] sample to int16, clamping out-of-range values.
func toInt16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * math.MaxInt16))
}
