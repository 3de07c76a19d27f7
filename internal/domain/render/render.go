// Package render defines the contract between the annotation core and the
// stimulus renderer collaborator.
package render

import (
	"context"

	"github.com/annolab/vidmark/internal/domain/stimulus"
)

// Kind discriminates renderable content.
type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// Renderable is one displayable content item derived from a stimulus.
// Images carry encoded JPEG bytes; text carries the string itself.
type Renderable struct {
	Kind Kind
	Data []byte
	Text string
}

// Renderer converts a stimulus reference into displayable content. Render
// must be repeatable and side-effect free: the startup probe calls it once
// per stimulus and the annotation page calls it again on every view.
type Renderer interface {
	// Render produces the content items for one stimulus. An error or an
	// empty result marks the stimulus as unrenderable during probing.
	Render(ctx context.Context, ref stimulus.Ref) ([]Renderable, error)

	// Available reports whether the renderer collaborator can be used at
	// all. Unavailability is fatal at startup.
	Available(ctx context.Context) error
}
