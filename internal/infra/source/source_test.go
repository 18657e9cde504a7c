package source

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/eventplayer/internal/domain/audio"
)

// drain reads frames until the source errors and returns the count.
func drain(t *testing.T, src audio.Source) (int, error) {
	t.Helper()
	for n := 0; n < 10000; n++ {
		frame, err := src.ProvideFrame()
		if err != nil {
			return n, err
		}
		require.Len(t, frame, audio.FrameSize)
	}
	t.Fatal("source never ended")
	return 0, nil
}

type closeRecorder struct {
	io.Reader
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestPCMSource(t *testing.T) {
	data := bytes.Repeat([]byte{0x7f}, audio.FrameSize*2+100)
	r := &closeRecorder{Reader: bytes.NewReader(data)}
	src := NewPCMSource(r)

	for i := 0; i < 2; i++ {
		frame, err := src.ProvideFrame()
		require.NoError(t, err)
		assert.Equal(t, data[:audio.FrameSize], []byte(frame))
	}

	frame, err := src.ProvideFrame()
	require.NoError(t, err, "partial frame is padded")
	assert.Equal(t, byte(0x7f), frame[99])
	assert.Equal(t, byte(0), frame[100])

	_, err = src.ProvideFrame()
	assert.ErrorIs(t, err, io.EOF)
	_, err = src.ProvideFrame()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, r.closed)
}

func TestPCMSource_Empty(t *testing.T) {
	src := NewPCMSource(bytes.NewReader(nil))
	_, err := src.ProvideFrame()
	assert.ErrorIs(t, err, io.EOF)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestPCMSource_ReadError(t *testing.T) {
	src := NewPCMSource(failingReader{})
	_, err := src.ProvideFrame()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Contains(t, err.Error(), "disk on fire")

	_, err = src.ProvideFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamerSource_Conversion(t *testing.T) {
	values := [][2]float64{{1, -1}, {0.5, 0}, {2, -2}}
	pos := 0
	s := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(values) {
			return 0, false
		}
		n := copy(samples, values[pos:])
		pos += n
		return n, true
	})
	format := beep.Format{SampleRate: audio.SampleRate, NumChannels: 2, Precision: 2}
	src := NewStreamerSource(s, format, nil)

	frame, err := src.ProvideFrame()
	require.NoError(t, err)

	sample := func(i int) int16 {
		return int16(uint16(frame[i*2]) | uint16(frame[i*2+1])<<8)
	}
	assert.Equal(t, int16(32767), sample(0))
	assert.Equal(t, int16(-32767), sample(1))
	assert.Equal(t, int16(16384), sample(2))
	assert.Equal(t, int16(0), sample(3))
	assert.Equal(t, int16(32767), sample(4), "clamped")
	assert.Equal(t, int16(-32767), sample(5), "clamped")
	assert.Equal(t, int16(0), sample(6), "padding")

	_, err = src.ProvideFrame()
	assert.ErrorIs(t, err, io.EOF)
}

type erroringStreamer struct {
	left int
}

func (e *erroringStreamer) Stream(samples [][2]float64) (int, bool) {
	if e.left == 0 {
		return 0, false
	}
	n := min(e.left, len(samples))
	e.left -= n
	return n, true
}

func (e *erroringStreamer) Err() error {
	if e.left == 0 {
		return errors.New("corrupt frame")
	}
	return nil
}

func TestStreamerSource_ErrorAfterPartialFrame(t *testing.T) {
	format := beep.Format{SampleRate: audio.SampleRate, NumChannels: 2, Precision: 2}
	src := NewStreamerSource(&erroringStreamer{left: 10}, format, nil)

	_, err := src.ProvideFrame()
	require.NoError(t, err)

	_, err = src.ProvideFrame()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt frame")
}

func TestStreamerSource_Resample(t *testing.T) {
	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	rc := &closeRecorder{}
	src := NewStreamerSource(beep.Silence(44100), format, rc)

	n, err := drain(t, src)
	assert.ErrorIs(t, err, io.EOF)
	assert.InDelta(t, 50, n, 1, "one second of audio is about 50 frames")
	assert.Equal(t, 1, rc.closed)
}

func TestNewTone(t *testing.T) {
	src, err := NewTone(440, 100*time.Millisecond)
	require.NoError(t, err)

	n, err := drain(t, src)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 5, n)
}

func TestNewTone_InvalidFrequency(t *testing.T) {
	_, err := NewTone(48000, time.Second)
	assert.Error(t, err)
}

func writeWAV(t *testing.T, dir string, d time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, "silence.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	sr := beep.SampleRate(audio.SampleRate)
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(sr.N(d)), format))
	return path
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("wav", func(t *testing.T) {
		src, err := OpenFile(writeWAV(t, dir, 200*time.Millisecond))
		require.NoError(t, err)

		n, err := drain(t, src)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 10, n)
	})

	t.Run("decoder owns the file", func(t *testing.T) {
		src, err := OpenFile(writeWAV(t, dir, 20*time.Millisecond))
		require.NoError(t, err)

		s, ok := src.(*StreamerSource)
		require.True(t, ok)
		require.NoError(t, s.closer.Close(), "a single close releases decoder and file")
	})

	t.Run("raw pcm", func(t *testing.T) {
		path := filepath.Join(dir, "tone.pcm")
		require.NoError(t, os.WriteFile(path, make([]byte, audio.FrameSize*3), 0o644))

		src, err := OpenFile(path)
		require.NoError(t, err)
		n, err := drain(t, src)
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 3, n)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := OpenFile(filepath.Join(dir, "song.xyz"))
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := OpenFile(filepath.Join(dir, "missing.mp3"))
		assert.Error(t, err)
	})

	t.Run("corrupt wav", func(t *testing.T) {
		path := filepath.Join(dir, "broken.wav")
		require.NoError(t, os.WriteFile(path, []byte("not a wav file"), 0o644))
		_, err := OpenFile(path)
		assert.Error(t, err)
	})
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.mp3", true},
		{"a.MP3", true},
		{"a.flac", true},
		{"a.wav", true},
		{"a.pcm", true},
		{"a.raw", true},
		{"a.ogg", false},
		{"noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupported(tt.path))
		})
	}
}

func TestReadTrackInfo_NoTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "untagged.pcm")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	info, err := ReadTrackInfo(path)
	require.NoError(t, err)
	assert.Equal(t, "untagged.pcm", info.Title)
	assert.Equal(t, "PCM", info.Format)
	assert.Empty(t, info.Artist)
}

func TestReadTrackInfo_Missing(t *testing.T) {
	_, err := ReadTrackInfo(filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)
}
