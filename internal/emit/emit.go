// Package emit renders a frame schema as standalone source text for the
// supported target languages. Every emitter consumes the canonical
// schema.Layout, so framing arithmetic is computed exactly once in Go and
// backends only translate value representations. Emitters are pure: the same
// schema always yields the same source text.
package emit

import (
	"fmt"

	"github.com/danmuck/framectl/internal/schema"
)

// Side names which end of a link a generated unit serves. Both sides carry
// encode and decode; the side only selects the output file name.
type Side string

const (
	SideSend Side = "send"
	SideRecv Side = "recv"
)

// Emitter renders one target language.
type Emitter interface {
	Language() string
	FileName(s *schema.FrameSchema, side Side) string
	Emit(s *schema.FrameSchema) (string, error)
}

// GenerationError reports a single backend failure. Generation of the other
// side proceeds regardless.
type GenerationError struct {
	Language string
	Side     Side
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("emit %s (%s side): %v", e.Language, e.Side, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ForLanguage returns the emitter for lang.
func ForLanguage(lang string) (Emitter, error) {
	switch lang {
	case "c":
		return cEmitter{}, nil
	case "cpp":
		return cppEmitter{}, nil
	case "python", "py":
		return pyEmitter{}, nil
	}
	return nil, fmt.Errorf("unsupported target language %q", lang)
}

// Languages lists the supported target languages.
func Languages() []string { return []string{"c", "cpp", "python"} }
