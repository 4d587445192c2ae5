package extract

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/docbuddy/docfill/internal/field"
)

// AcroFormScanner reads native form-field metadata out of a PDF's
// AcroForm dictionary using pdfcpu.
type AcroFormScanner struct {
	debugMode bool
}

// NewAcroFormScanner creates a scanner for native PDF form fields.
func NewAcroFormScanner(debugMode bool) *AcroFormScanner {
	return &AcroFormScanner{debugMode: debugMode}
}

// ScanFile extracts native form fields from a PDF file. A document
// without an AcroForm dictionary yields an empty slice, not an error.
func (s *AcroFormScanner) ScanFile(path string) ([]NativeField, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	return s.scanContext(ctx)
}

// scanContext walks catalog -> AcroForm -> Fields.
func (s *AcroFormScanner) scanContext(ctx *model.Context) ([]NativeField, error) {
	var fields []NativeField

	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return fields, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return fields, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return fields, nil
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	for i, fieldRef := range fieldsArray {
		nf, err := s.processField(ctx, fieldRef, i)
		if err != nil {
			if s.debugMode {
				fmt.Fprintf(os.Stderr, "error processing field %d: %v\n", i, err)
			}
			continue
		}
		if nf != nil {
			fields = append(fields, *nf)
		}
	}

	return fields, nil
}

// processField maps one field dictionary to a NativeField. Push buttons
// and signature widgets have no fillable counterpart and are skipped.
func (s *AcroFormScanner) processField(ctx *model.Context, fieldObj types.Object, index int) (*NativeField, error) {
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference field: %w", err)
	}
	if fieldDict == nil {
		return nil, nil
	}

	nf := &NativeField{Kind: field.KindText}

	if nameObj, found := fieldDict.Find("T"); found {
		if name, err := ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil); err == nil {
			nf.Name = name
		}
	}
	if nf.Name == "" {
		nf.Name = fmt.Sprintf("field_%d", index+1)
	}

	kind, fillable := s.fieldKind(ctx, fieldDict)
	if !fillable {
		return nil, nil
	}
	nf.Kind = kind

	if valueObj, found := fieldDict.Find("V"); found {
		if val, err := ctx.DereferenceStringOrHexLiteral(valueObj, model.V10, nil); err == nil {
			nf.Value = val
		} else if name, err := ctx.DereferenceName(valueObj, model.V10, nil); err == nil {
			nf.Value = string(name)
		}
	}

	if flagsObj, found := fieldDict.Find("Ff"); found {
		if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
			nf.Required = (*flags & 2) != 0 // Bit 2
		}
	}

	if nf.Kind == field.KindSelect {
		nf.Options = s.fieldOptions(ctx, fieldDict)
	}

	nf.Rect, nf.Page = s.fieldBounds(ctx, fieldDict)

	return nf, nil
}

// fieldKind maps the PDF field type (FT entry) onto the descriptor kind
// enumeration. The second return value reports whether the field can
// hold a user-entered value at all.
func (s *AcroFormScanner) fieldKind(ctx *model.Context, fieldDict types.Dict) (field.Kind, bool) {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		// Check parent for inherited FT
		if parentObj, found := fieldDict.Find("Parent"); found {
			if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				return s.fieldKind(ctx, parentDict)
			}
		}
		return field.KindText, true
	}

	ftName, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return field.KindText, true
	}

	switch ftName {
	case "Tx":
		return field.KindText, true
	case "Ch":
		return field.KindSelect, true
	case "Btn":
		if flagsObj, found := fieldDict.Find("Ff"); found {
			if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
				if (*flags & (1 << 15)) != 0 { // Bit 16: Radio
					return field.KindSelect, true
				}
				if (*flags & (1 << 16)) != 0 { // Bit 17: Pushbutton
					return "", false
				}
			}
		}
		// Plain checkboxes surface as a yes/no choice
		return field.KindSelect, true
	case "Sig":
		return "", false
	default:
		return field.KindText, true
	}
}

// fieldOptions extracts the Opt array for choice fields. Checkboxes and
// radio groups without Opt entries default to Yes/Off export values.
func (s *AcroFormScanner) fieldOptions(ctx *model.Context, fieldDict types.Dict) []string {
	optObj, found := fieldDict.Find("Opt")
	if !found {
		return []string{"Yes", "Off"}
	}

	optArray, err := ctx.DereferenceArray(optObj)
	if err != nil {
		return []string{"Yes", "Off"}
	}

	var options []string
	for _, opt := range optArray {
		// Options can be strings or [export_value, display_value] pairs
		if str, err := ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			options = append(options, str)
		} else if arr, err := ctx.DereferenceArray(opt); err == nil && len(arr) >= 2 {
			if displayVal, err := ctx.DereferenceStringOrHexLiteral(arr[1], model.V10, nil); err == nil {
				options = append(options, displayVal)
			}
		}
	}
	if len(options) == 0 {
		return []string{"Yes", "Off"}
	}
	return options
}

// fieldBounds extracts the widget rectangle and page binding.
func (s *AcroFormScanner) fieldBounds(ctx *model.Context, fieldDict types.Dict) (*field.Rect, int) {
	if rectObj, found := fieldDict.Find("Rect"); found {
		if rect := s.parseRect(ctx, rectObj); rect != nil {
			return rect, 1
		}
	}

	// Fields with separate widget annotations keep Rect on the first kid
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kidsArray, err := ctx.DereferenceArray(kidsObj); err == nil && len(kidsArray) > 0 {
			if widgetDict, err := ctx.DereferenceDict(kidsArray[0]); err == nil && widgetDict != nil {
				if rectObj, found := widgetDict.Find("Rect"); found {
					if rect := s.parseRect(ctx, rectObj); rect != nil {
						return rect, 1
					}
				}
			}
		}
	}

	return nil, 0
}

func (s *AcroFormScanner) parseRect(ctx *model.Context, rectObj types.Object) *field.Rect {
	rectArray, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return nil
	}

	coords := make([]float64, 4)
	for i, coord := range rectArray {
		if f, err := ctx.DereferenceNumber(coord); err == nil {
			coords[i] = f
		}
	}

	return &field.Rect{
		X:      coords[0],
		Y:      coords[1],
		Width:  coords[2] - coords[0],
		Height: coords[3] - coords[1],
	}
}
