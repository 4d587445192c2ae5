// Package field defines the canonical representation of a fillable slot
// in a document, the reusable templates built from such slots, and the
// pure combination rules applied to field lists.
package field

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the input type of a field. It is a closed enumeration;
// consumers are expected to handle every kind exhaustively.
type Kind string

const (
	KindText   Kind = "text"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
	KindSelect Kind = "select"
)

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindNumber, KindDate, KindSelect:
		return true
	}
	return false
}

// Rect describes a field's on-page location in document coordinate space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Field represents one fillable slot in a document or template.
type Field struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Kind            Kind     `json:"kind"`
	PlaceholderHint string   `json:"placeholder_hint,omitempty"`
	Required        bool     `json:"required"`
	Options         []string `json:"options,omitempty"` // select kind only
	Value           string   `json:"value,omitempty"`
	Position        *Rect    `json:"position,omitempty"`
	Page            int      `json:"page,omitempty"` // 1-based, 0 when unbound
}

// Template is a reusable, position-free schema of fields authored ahead
// of any document. Its field list is read-only to the fill pipeline.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Fields      []Field   `json:"fields"`
}

// Document references a loaded document and exclusively owns its
// resolved field list. It is discarded when the user loads a new
// document or returns to template selection.
type Document struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ContentPath string   `json:"content_path"`
	TemplateID  string   `json:"template_id,omitempty"`
	Pages       []string `json:"-"` // per-page extracted text, kept for fill
	HasAcroForm bool     `json:"has_acro_form"`
	Fields      []Field  `json:"fields"`
}

// New creates a field with a fresh unique ID and no value, position or
// page binding.
func New(name string, kind Kind, required bool, hint string) Field {
	return Field{
		ID:              uuid.NewString(),
		Name:            name,
		Kind:            kind,
		PlaceholderHint: hint,
		Required:        required,
	}
}

// Validate checks the structural invariants of a single field: a
// non-empty name, a known kind, and options present iff the kind is
// select. Name uniqueness is a list-level property enforced by Merge
// and Append, not here.
func (f Field) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("field name cannot be empty")
	}
	if !f.Kind.Valid() {
		return fmt.Errorf("unknown field kind: %q", f.Kind)
	}
	if f.Kind == KindSelect && len(f.Options) == 0 {
		return fmt.Errorf("select field %q must declare options", f.Name)
	}
	if f.Kind != KindSelect && len(f.Options) > 0 {
		return fmt.Errorf("field %q of kind %q cannot declare options", f.Name, f.Kind)
	}
	return nil
}
