// Package audio defines the PCM frame format and the frame source contract.
package audio

import "time"

// PCM parameters of every frame handed to the tracker.
const (
	SampleRate     = 48000 // Hz
	Channels       = 2     // Stereo
	BytesPerSample = 2     // Signed 16-bit little-endian

	FrameDuration = 20 * time.Millisecond

	// SamplesPerFrame is the number of samples per channel in one frame.
	SamplesPerFrame = SampleRate / int(time.Second/FrameDuration)

	// FrameSize is the size of one frame in bytes.
	FrameSize = SamplesPerFrame * Channels * BytesPerSample
)

// Frame is FrameSize bytes of interleaved s16le PCM.
type Frame []byte

// Source produces consecutive fixed-duration audio frames.
//
// ProvideFrame returns io.EOF once no further frames are available.
// Any other error also ends the stream.
type Source interface {
	ProvideFrame() (Frame, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() (Frame, error)

// ProvideFrame calls f.
func (f SourceFunc) ProvideFrame() (Frame, error) {
	return f()
}

// Silence returns a zeroed frame.
func Silence() Frame {
	return make(Frame, FrameSize)
}

// Duration returns the playback time covered by n frames.
func Duration(n int) time.Duration {
	return time.Duration(n) * FrameDuration
}
