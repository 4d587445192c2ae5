// Package docfill orchestrates the placeholder discovery and field-fill
// pipeline: loading documents, extracting and merging field
// descriptors, tracking user edits, and producing filled artifacts.
package docfill

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/docbuddy/docfill/internal/extract"
	"github.com/docbuddy/docfill/internal/field"
	"github.com/docbuddy/docfill/internal/fill"
	"github.com/docbuddy/docfill/internal/template"
)

// Service handles document fill operations by orchestrating the
// extraction, merge and fill components. Each loaded document
// exclusively owns its field list; the registry lock only guards the
// document map so that independent documents can be processed
// concurrently.
type Service struct {
	maxFileSize int64
	pages       *extract.PageReader
	acroForm    *extract.AcroFormScanner
	extractor   *extract.Extractor
	engine      *fill.Engine
	templates   *template.Store
	validator   *Validator
	search      *Search

	mu   sync.Mutex
	docs map[string]*field.Document
}

// NewService creates a service with all pipeline components wired.
func NewService(maxFileSize int64, outputDir string, templates *template.Store, debugMode bool) *Service {
	return &Service{
		maxFileSize: maxFileSize,
		pages:       extract.NewPageReader(maxFileSize),
		acroForm:    extract.NewAcroFormScanner(debugMode),
		extractor:   extract.NewExtractor(),
		engine:      fill.NewEngine(outputDir),
		templates:   templates,
		validator:   NewValidator(maxFileSize),
		search:      NewSearch(maxFileSize),
		docs:        make(map[string]*field.Document),
	}
}

// DocumentLoad loads a PDF, discovers its fillable locations, merges
// them against the requested template if any, and registers the
// resulting document. Content-level extraction faults are downgraded to
// a warning on the result; only an unusable path or unknown template is
// a hard error.
func (s *Service) DocumentLoad(ctx context.Context, req DocumentLoadRequest) (*DocumentLoadResult, error) {
	validation, err := s.validator.ValidateFile(DocumentValidateRequest{Path: req.Path})
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		return nil, fmt.Errorf("cannot load document: %s", validation.Message)
	}

	var warnings []string

	pages, err := s.pages.ReadPages(req.Path)
	if err != nil {
		// Extraction is recoverable: the fallback set still lets the
		// user proceed by hand.
		warnings = append(warnings, fmt.Sprintf("text extraction failed: %v", err))
		pages = nil
	}

	native, err := s.acroForm.ScanFile(req.Path)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("form field scan failed: %v", err))
		native = nil
	}

	res := s.extractor.Extract(ctx, pages, native)
	if res.Warning != nil {
		warnings = append(warnings, res.Warning.Error())
	}

	fields := res.Fields
	if req.TemplateID != "" {
		tmpl, err := s.templates.Get(ctx, req.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("cannot apply template %s: %w", req.TemplateID, err)
		}
		fields = field.Merge(tmpl.Fields, fields)
	}

	pageTexts := make([]string, len(pages))
	for i, p := range pages {
		pageTexts[i] = p.Text
	}

	doc := &field.Document{
		ID:          uuid.NewString(),
		Name:        filepath.Base(req.Path),
		ContentPath: req.Path,
		TemplateID:  req.TemplateID,
		Pages:       pageTexts,
		HasAcroForm: len(native) > 0,
		Fields:      fields,
	}

	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()

	return &DocumentLoadResult{
		DocumentID:  doc.ID,
		Name:        doc.Name,
		Pages:       len(pages),
		HasAcroForm: doc.HasAcroForm,
		TemplateID:  doc.TemplateID,
		Fields:      fields,
		Warning:     strings.Join(warnings, "; "),
	}, nil
}

// DocumentClose discards a loaded document and its field list.
func (s *Service) DocumentClose(req DocumentCloseRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[req.DocumentID]; !ok {
		return fmt.Errorf("no loaded document with id %s", req.DocumentID)
	}
	delete(s.docs, req.DocumentID)
	return nil
}

// DocumentValidate checks whether a file is a loadable PDF.
func (s *Service) DocumentValidate(req DocumentValidateRequest) (*DocumentValidateResult, error) {
	return s.validator.ValidateFile(req)
}

// DocumentSearch searches for PDF files in a directory.
func (s *Service) DocumentSearch(req DocumentSearchRequest) (*DocumentSearchResult, error) {
	return s.search.SearchDirectory(req)
}

// FieldSetValue sets the value of one field on a loaded document.
// Select fields only accept one of their declared options.
func (s *Service) FieldSetValue(req FieldSetValueRequest) (*FieldSetValueResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[req.DocumentID]
	if !ok {
		return nil, fmt.Errorf("no loaded document with id %s", req.DocumentID)
	}

	for i := range doc.Fields {
		if doc.Fields[i].ID != req.FieldID {
			continue
		}
		f := &doc.Fields[i]
		if f.Kind == field.KindSelect && req.Value != "" && !containsOption(f.Options, req.Value) {
			return nil, fmt.Errorf("value %q is not an option of field %q", req.Value, f.Name)
		}
		f.Value = req.Value
		return &FieldSetValueResult{Field: *f}, nil
	}

	return nil, fmt.Errorf("no field with id %s on document %s", req.FieldID, req.DocumentID)
}

// FieldPlace authors a new field at a click coordinate and appends it to
// the document's list, subject to the first-occurrence-wins name rule.
func (s *Service) FieldPlace(req FieldPlaceRequest) (*FieldPlaceResult, error) {
	placed, err := field.PlaceAt(req.X, req.Y, req.Page, req.Name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[req.DocumentID]
	if !ok {
		return nil, fmt.Errorf("no loaded document with id %s", req.DocumentID)
	}

	var added bool
	doc.Fields, added = field.Append(doc.Fields, placed)
	return &FieldPlaceResult{Field: placed, Added: added}, nil
}

// DocumentFill produces a filled artifact from the document's current
// field values. Validation and processing failures come back as the
// fill package's typed errors.
func (s *Service) DocumentFill(ctx context.Context, req DocumentFillRequest) (*DocumentFillResult, error) {
	s.mu.Lock()
	doc, ok := s.docs[req.DocumentID]
	var snapshot []field.Field
	if ok {
		snapshot = make([]field.Field, len(doc.Fields))
		copy(snapshot, doc.Fields)
	}
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no loaded document with id %s", req.DocumentID)
	}

	artifact, err := s.engine.Fill(ctx, doc, snapshot)
	if err != nil {
		return nil, err
	}

	return &DocumentFillResult{
		ArtifactID: artifact.ID,
		Path:       artifact.Path,
	}, nil
}

// TemplateList returns all stored templates, newest first.
func (s *Service) TemplateList(ctx context.Context) (*TemplateListResult, error) {
	templates, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}
	return &TemplateListResult{Templates: templates, TotalCount: len(templates)}, nil
}

// TemplateCreate validates and stores a newly authored template.
func (s *Service) TemplateCreate(ctx context.Context, req TemplateCreateRequest) (*field.Template, error) {
	return s.templates.Create(ctx, req.Name, req.Description, req.Fields)
}

// TemplateDelete removes a stored template.
func (s *Service) TemplateDelete(ctx context.Context, req TemplateDeleteRequest) error {
	return s.templates.Delete(ctx, req.ID)
}

// GetMaxFileSize returns the maximum file size limit.
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// IsValidPDF performs a quick validation check on a file.
func (s *Service) IsValidPDF(path string) bool {
	return s.validator.IsValidPDF(path)
}

// TemplateStorePath returns the template database location.
func (s *Service) TemplateStorePath() string {
	return s.templates.Path()
}

func containsOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
