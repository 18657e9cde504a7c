package audio

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameSize(t *testing.T) {
	assert.Equal(t, 960, SamplesPerFrame)
	assert.Equal(t, 3840, FrameSize)
}

func TestSilence(t *testing.T) {
	f := Silence()
	assert.Len(t, f, FrameSize)
	for _, b := range f {
		if b != 0 {
			t.Fatalf("silence frame contains non-zero byte %d", b)
		}
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), Duration(0))
	assert.Equal(t, time.Second, Duration(50))
}

func TestSourceFunc(t *testing.T) {
	calls := 0
	var src Source = SourceFunc(func() (Frame, error) {
		calls++
		return nil, io.EOF
	})

	f, err := src.ProvideFrame()
	assert.Nil(t, f)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, calls)
}
