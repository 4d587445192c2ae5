package docfill

import (
	"github.com/docbuddy/docfill/internal/field"
)

// FileInfo represents information about a PDF file on disk.
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// DocumentLoadRequest represents a request to load a document and
// discover its fillable locations.
type DocumentLoadRequest struct {
	Path       string `json:"path"`
	TemplateID string `json:"template_id,omitempty"`
}

// DocumentCloseRequest represents a request to discard a loaded document.
type DocumentCloseRequest struct {
	DocumentID string `json:"document_id"`
}

// DocumentValidateRequest represents a request to validate a PDF file.
type DocumentValidateRequest struct {
	Path string `json:"path"`
}

// DocumentSearchRequest represents a request to search for PDF files in
// a directory.
type DocumentSearchRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// FieldSetValueRequest represents a request to set a field's value on a
// loaded document.
type FieldSetValueRequest struct {
	DocumentID string `json:"document_id"`
	FieldID    string `json:"field_id"`
	Value      string `json:"value"`
}

// FieldPlaceRequest represents a request to author a new field at a
// click coordinate.
type FieldPlaceRequest struct {
	DocumentID string  `json:"document_id"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Page       int     `json:"page"`
}

// DocumentFillRequest represents a request to produce a filled artifact
// from a loaded document's current field values.
type DocumentFillRequest struct {
	DocumentID string `json:"document_id"`
}

// TemplateCreateRequest represents a request to author a new template.
type TemplateCreateRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Fields      []field.Field `json:"fields"`
}

// TemplateDeleteRequest represents a request to delete a template.
type TemplateDeleteRequest struct {
	ID string `json:"id"`
}

// Response Types

// DocumentLoadResult represents the outcome of loading a document.
type DocumentLoadResult struct {
	DocumentID  string        `json:"document_id"`
	Name        string        `json:"name"`
	Pages       int           `json:"pages"`
	HasAcroForm bool          `json:"has_acro_form"`
	TemplateID  string        `json:"template_id,omitempty"`
	Fields      []field.Field `json:"fields"`
	Warning     string        `json:"warning,omitempty"` // recoverable extraction warning
}

// DocumentValidateResult represents the result of a PDF validation.
type DocumentValidateResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Message string `json:"message,omitempty"`
}

// DocumentSearchResult represents the result of a document search.
type DocumentSearchResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// FieldSetValueResult returns the updated field.
type FieldSetValueResult struct {
	Field field.Field `json:"field"`
}

// FieldPlaceResult returns the placed field and whether it was appended
// (false when a field with the same name already existed).
type FieldPlaceResult struct {
	Field field.Field `json:"field"`
	Added bool        `json:"added"`
}

// DocumentFillResult references the produced artifact.
type DocumentFillResult struct {
	ArtifactID string `json:"artifact_id"`
	Path       string `json:"path"`
}

// TemplateListResult lists the stored templates.
type TemplateListResult struct {
	Templates  []field.Template `json:"templates"`
	TotalCount int              `json:"total_count"`
}
