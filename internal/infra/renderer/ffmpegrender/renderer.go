// Package ffmpegrender renders video stimuli by extracting evenly spaced
// frames with ffmpeg. It is the production implementation of the renderer
// collaborator: the startup probe uses it to find unrenderable videos and
// the annotation page uses it to build the frame strip an annotator sees.
package ffmpegrender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/annolab/vidmark/internal/domain/render"
	"github.com/annolab/vidmark/internal/domain/stimulus"
)

// ErrUnavailable indicates the ffmpeg/ffprobe binaries cannot be used at
// all. This is fatal at startup; per-stimulus failures are not.
var ErrUnavailable = errors.New("ffmpeg renderer unavailable")

// Config holds the extraction settings.
type Config struct {
	FFmpegPath  string
	FFprobePath string

	// FrameCount is the number of evenly spaced frames per video.
	FrameCount int

	// FrameWidth scales extracted frames to this width, preserving aspect
	// ratio. Zero keeps the source resolution.
	FrameWidth int
}

// Renderer implements render.Renderer over the ffmpeg command line tools.
type Renderer struct {
	cfg Config
}

// New creates a renderer. Unset paths default to the binaries on PATH.
func New(cfg Config) *Renderer {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.FrameCount <= 0 {
		cfg.FrameCount = 10
	}
	return &Renderer{cfg: cfg}
}

// Available checks that both binaries exist and execute.
func (r *Renderer) Available(ctx context.Context) error {
	for _, bin := range []string{r.cfg.FFmpegPath, r.cfg.FFprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, bin, err)
		}
	}

	if err := exec.CommandContext(ctx, r.cfg.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("%w: running %s -version: %v", ErrUnavailable, r.cfg.FFmpegPath, err)
	}

	return nil
}

// Render extracts FrameCount JPEG frames at evenly spaced timestamps,
// skipping the very start and end of the clip: frame i sits at fraction
// (i+1)/(FrameCount+1) of the duration.
func (r *Renderer) Render(ctx context.Context, ref stimulus.Ref) ([]render.Renderable, error) {
	duration, err := r.duration(ctx, ref.Path)
	if err != nil {
		return nil, err
	}

	out := make([]render.Renderable, 0, r.cfg.FrameCount)
	for i := 0; i < r.cfg.FrameCount; i++ {
		ts := duration * float64(i+1) / float64(r.cfg.FrameCount+1)

		frame, err := r.extractFrame(ctx, ref.Path, ts)
		if err != nil {
			return nil, fmt.Errorf("extracting frame %d of %s: %w", i, ref.ID, err)
		}

		out = append(out, render.Renderable{Kind: render.KindImage, Data: frame})
	}

	return out, nil
}

func (r *Renderer) duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, r.cfg.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("probing duration: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", stdout.String(), err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("non-positive duration %f", duration)
	}

	return duration, nil
}

func (r *Renderer) extractFrame(ctx context.Context, path string, ts float64) ([]byte, error) {
	args := []string{
		"-v", "error",
		"-ss", strconv.FormatFloat(ts, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
	}
	if r.cfg.FrameWidth > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:-1", r.cfg.FrameWidth))
	}
	args = append(args, "-f", "image2", "-vcodec", "mjpeg", "pipe:1")

	cmd := exec.CommandContext(ctx, r.cfg.FFmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%v: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg produced no output")
	}

	return stdout.Bytes(), nil
}
