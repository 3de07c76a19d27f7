package ffmpegrender

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	r := New(Config{})

	assert.Equal(t, "ffmpeg", r.cfg.FFmpegPath)
	assert.Equal(t, "ffprobe", r.cfg.FFprobePath)
	assert.Equal(t, 10, r.cfg.FrameCount)
	assert.Equal(t, 0, r.cfg.FrameWidth)
}

func TestNewKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	r := New(Config{
		FFmpegPath:  "/opt/ffmpeg/bin/ffmpeg",
		FFprobePath: "/opt/ffmpeg/bin/ffprobe",
		FrameCount:  4,
		FrameWidth:  320,
	})

	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", r.cfg.FFmpegPath)
	assert.Equal(t, 4, r.cfg.FrameCount)
	assert.Equal(t, 320, r.cfg.FrameWidth)
}

func TestAvailableMissingBinary(t *testing.T) {
	t.Parallel()

	r := New(Config{FFmpegPath: "/nonexistent/ffmpeg", FFprobePath: "/nonexistent/ffprobe"})

	err := r.Available(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
