package fill

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// AcroFormWriter rewrites a PDF with its native form-field values set
// using pdfcpu.
type AcroFormWriter struct{}

// NewAcroFormWriter creates a writer for native PDF form fields.
func NewAcroFormWriter() *AcroFormWriter {
	return &AcroFormWriter{}
}

// FillFile reads the PDF at inPath, sets the value of every form field
// named in values, and writes the result to outPath. The output is
// written to a temp file and renamed only on success.
func (w *AcroFormWriter) FillFile(inPath, outPath string, values map[string]string) error {
	f, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return fmt.Errorf("failed to ensure page count: %w", err)
	}

	if err := w.setFieldValues(ctx, values); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".docfill-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := api.WriteContext(ctx, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write filled PDF: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close filled PDF: %w", err)
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize filled PDF: %w", err)
	}
	return nil
}

// setFieldValues walks the AcroForm Fields array and sets the V entry
// of every field whose name appears in values. Viewers regenerate the
// widget appearance via NeedAppearances.
func (w *AcroFormWriter) setFieldValues(ctx *model.Context, values map[string]string) error {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return fmt.Errorf("document has no AcroForm dictionary")
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		return fmt.Errorf("failed to dereference AcroForm: %w", err)
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return fmt.Errorf("AcroForm has no Fields array")
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	for _, fieldRef := range fieldsArray {
		fieldDict, err := ctx.DereferenceDict(fieldRef)
		if err != nil || fieldDict == nil {
			continue
		}

		nameObj, found := fieldDict.Find("T")
		if !found {
			continue
		}
		name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
		if err != nil {
			continue
		}

		value, ok := values[name]
		if !ok {
			continue
		}

		fieldDict["V"] = types.StringLiteral(value)
		// Drop the stale appearance stream so viewers rebuild it
		delete(fieldDict, "AP")
	}

	acroFormDict["NeedAppearances"] = types.Boolean(true)
	return nil
}
