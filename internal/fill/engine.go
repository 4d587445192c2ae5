// Package fill validates a resolved field list against its document and
// produces a filled artifact. The operation is all-or-nothing: either a
// complete artifact reference comes back, or a typed error and no
// output.
package fill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docbuddy/docfill/internal/field"
)

// Artifact references the output produced by a successful fill.
type Artifact struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at"`
}

// Engine substitutes field values into document content.
type Engine struct {
	outputDir string
	acroForm  *AcroFormWriter
}

// NewEngine creates a fill engine writing artifacts into outputDir.
func NewEngine(outputDir string) *Engine {
	return &Engine{
		outputDir: outputDir,
		acroForm:  NewAcroFormWriter(),
	}
}

// Fill validates the required fields and produces a filled artifact for
// doc. Documents carrying a native AcroForm are rewritten as PDFs with
// their field values set; placeholder documents have every {{name}}
// marker substituted in the owned page text and the result written as a
// text artifact. Failures return either *ValidationError or
// *ProcessingError, never a partial artifact.
func (e *Engine) Fill(ctx context.Context, doc *field.Document, fields []field.Field) (*Artifact, error) {
	if doc == nil {
		return nil, &ProcessingError{Op: "fill", Err: fmt.Errorf("document is nil")}
	}

	if err := validateRequired(fields); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, &ProcessingError{Op: "fill", Err: err}
	}

	if err := os.MkdirAll(e.outputDir, 0o750); err != nil {
		return nil, &ProcessingError{Op: "prepare output directory", Err: err}
	}

	var outPath string
	var err error
	if doc.HasAcroForm {
		outPath, err = e.fillAcroForm(doc, fields)
	} else {
		outPath, err = e.fillPlaceholders(doc, fields)
	}
	if err != nil {
		return nil, err
	}

	return &Artifact{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Path:       outPath,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// validateRequired checks that every required field carries a non-empty
// value, reporting all offenders at once.
func validateRequired(fields []field.Field) error {
	var missing []string
	for _, f := range fields {
		if f.Required && strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// fillPlaceholders substitutes {{name}} markers in the document's page
// text and writes the result atomically: a temp file renamed into place
// only once every page has been written.
func (e *Engine) fillPlaceholders(doc *field.Document, fields []field.Field) (string, error) {
	if len(doc.Pages) == 0 {
		return "", &ProcessingError{Op: "substitute placeholders", Err: fmt.Errorf("document has no page content")}
	}

	replacements := make([]string, 0, len(fields)*2)
	for _, f := range fields {
		replacements = append(replacements, "{{"+f.Name+"}}", f.Value)
	}
	replacer := strings.NewReplacer(replacements...)

	var builder strings.Builder
	for i, page := range doc.Pages {
		if i > 0 {
			builder.WriteString("\n\n--- Page Break ---\n\n")
		}
		builder.WriteString(replacer.Replace(page))
	}

	outPath := filepath.Join(e.outputDir, doc.ID+".filled.txt")
	if err := writeAtomic(outPath, []byte(builder.String())); err != nil {
		return "", &ProcessingError{Op: "write artifact", Err: err}
	}
	return outPath, nil
}

// fillAcroForm sets the native form-field values and rewrites the PDF.
func (e *Engine) fillAcroForm(doc *field.Document, fields []field.Field) (string, error) {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.Value != "" {
			values[f.Name] = f.Value
		}
	}

	outPath := filepath.Join(e.outputDir, doc.ID+".filled.pdf")
	if err := e.acroForm.FillFile(doc.ContentPath, outPath, values); err != nil {
		return "", &ProcessingError{Op: "fill form fields", Err: err}
	}
	return outPath, nil
}

// writeAtomic writes data to path via a temp file in the same directory
// so that a failed write never leaves a partial artifact behind.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docfill-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return nil
}
