// Package extract turns raw document content into a canonical,
// deduplicated list of field descriptors. It accepts per-page text
// scanned for {{placeholder}} markers, native form-field metadata, or
// both, and never fails hard: on unusable input it falls back to a
// generic field set and reports the cause as a recoverable warning.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/docbuddy/docfill/internal/field"
)

// placeholderPattern matches {{...}} markers: opening double brace, one
// or more non-closing-brace characters, closing double brace. Nested or
// malformed braces are left as literal text.
var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Advisory default box for placeholder-derived fields when the text
// source supplies no real coordinates. First field at the base offset,
// each subsequent one stacked below by rowStep.
const (
	defaultX      = 100
	defaultY      = 200
	defaultWidth  = 300
	defaultHeight = 30
	rowStep       = 50
)

// PageText is the raw text of a single page, in page order.
type PageText struct {
	Number int    `json:"number"` // 1-based
	Text   string `json:"text"`
}

// NativeField is structured form-field metadata obtained from the
// document itself, with true coordinates and types.
type NativeField struct {
	Name     string      `json:"name"`
	Kind     field.Kind  `json:"kind"`
	Value    string      `json:"value,omitempty"`
	Options  []string    `json:"options,omitempty"`
	Required bool        `json:"required"`
	Rect     *field.Rect `json:"rect,omitempty"`
	Page     int         `json:"page,omitempty"`
}

// Result is the outcome of an extraction run. Warning is non-nil when
// extraction could not produce document-derived fields and the fallback
// set was returned instead; it is advisory, never fatal.
type Result struct {
	Fields  []field.Field
	Warning error
}

// Extractor scans document content for fillable locations.
type Extractor struct{}

// NewExtractor creates a placeholder extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract produces one field descriptor per unique fillable location
// found in pages and native metadata. Placeholder markers are
// deduplicated by trimmed name, first occurrence wins (page order, then
// in-page scan order). Native metadata takes precedence per name for
// kind, position, page, options and value; placeholder-derived required
// flag and hint serve as fallback defaults. Native-only fields are
// appended after the placeholder-derived ones.
//
// Extract never returns an error: malformed content yields the fallback
// set with the cause attached as Result.Warning.
func (e *Extractor) Extract(ctx context.Context, pages []PageText, native []NativeField) Result {
	fields, err := e.extract(ctx, pages, native)
	if err != nil {
		return Result{Fields: fallbackFields(), Warning: err}
	}
	if len(fields) == 0 {
		return Result{
			Fields:  fallbackFields(),
			Warning: fmt.Errorf("no fillable locations found in document"),
		}
	}
	return Result{Fields: fields}
}

func (e *Extractor) extract(ctx context.Context, pages []PageText, native []NativeField) (fields []field.Field, err error) {
	// Text extraction backends have been observed to hand back content
	// that trips the scanner; absorb any panic into the fallback path.
	defer func() {
		if r := recover(); r != nil {
			fields = nil
			err = fmt.Errorf("placeholder scan failed: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields = e.scanPlaceholders(pages)
	fields = e.applyNative(fields, native)
	return fields, nil
}

// scanPlaceholders walks pages in order and yields one text field per
// unique trimmed placeholder name.
func (e *Extractor) scanPlaceholders(pages []PageText) []field.Field {
	var fields []field.Field
	seen := make(map[string]struct{})

	for _, page := range pages {
		for _, match := range placeholderPattern.FindAllStringSubmatch(page.Text, -1) {
			name := strings.TrimSpace(match[1])
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}

			f := field.New(name, field.KindText, true, "Enter "+name)
			f.Position = &field.Rect{
				X:      defaultX,
				Y:      defaultY + float64(len(fields))*rowStep,
				Width:  defaultWidth,
				Height: defaultHeight,
			}
			f.Page = 1
			fields = append(fields, f)
		}
	}

	return fields
}

// applyNative overlays native form-field metadata onto the
// placeholder-derived fields. Native entries win on kind, position,
// page, options and value; the placeholder's required flag and hint
// remain as defaults where the native entry carries none.
func (e *Extractor) applyNative(fields []field.Field, native []NativeField) []field.Field {
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		byName[f.Name] = i
	}

	for _, nf := range native {
		name := strings.TrimSpace(nf.Name)
		if name == "" {
			continue
		}

		kind := nf.Kind
		if !kind.Valid() {
			kind = field.KindText
		}

		if i, ok := byName[name]; ok {
			fields[i].Kind = kind
			fields[i].Options = nf.Options
			if nf.Value != "" {
				fields[i].Value = nf.Value
			}
			if nf.Required {
				fields[i].Required = true
			}
			if nf.Rect != nil {
				r := *nf.Rect
				fields[i].Position = &r
			}
			if nf.Page > 0 {
				fields[i].Page = nf.Page
			}
			continue
		}

		f := field.New(name, kind, nf.Required, "Enter "+name)
		f.Options = nf.Options
		f.Value = nf.Value
		if nf.Rect != nil {
			r := *nf.Rect
			f.Position = &r
		}
		f.Page = nf.Page
		byName[name] = len(fields)
		fields = append(fields, f)
	}

	return fields
}

// fallbackFields is the fixed generic set returned when extraction finds
// nothing usable, so the caller is never left with an empty list.
func fallbackFields() []field.Field {
	specs := []struct {
		name string
		kind field.Kind
		hint string
		rect field.Rect
		page int
	}{
		{"full_name", field.KindText, "Enter your full name", field.Rect{X: 100, Y: 200, Width: 300, Height: 30}, 1},
		{"company", field.KindText, "Enter company name", field.Rect{X: 100, Y: 250, Width: 300, Height: 30}, 1},
		{"date", field.KindDate, "Select date", field.Rect{X: 100, Y: 300, Width: 200, Height: 30}, 1},
		{"signature", field.KindText, "Type your name as signature", field.Rect{X: 100, Y: 500, Width: 300, Height: 50}, 2},
	}

	fields := make([]field.Field, 0, len(specs))
	for _, s := range specs {
		f := field.New(s.name, s.kind, true, s.hint)
		r := s.rect
		f.Position = &r
		f.Page = s.page
		fields = append(fields, f)
	}
	return fields
}
