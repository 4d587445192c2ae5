package fill

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbuddy/docfill/internal/field"
)

func placeholderDoc(pages ...string) *field.Document {
	return &field.Document{
		ID:    "doc-test",
		Name:  "contract.pdf",
		Pages: pages,
	}
}

func TestEngine_Fill_AllRequiredSatisfied(t *testing.T) {
	engine := NewEngine(t.TempDir())
	doc := placeholderDoc("Name: {{full_name}}, Date: {{date}}")
	fields := []field.Field{
		{ID: "1", Name: "full_name", Kind: field.KindText, Required: true, Value: "Jane Doe"},
		{ID: "2", Name: "date", Kind: field.KindDate, Required: true, Value: "2024-01-01"},
	}

	artifact, err := engine.Fill(context.Background(), doc, fields)

	require.NoError(t, err)
	require.NotNil(t, artifact)
	assert.NotEmpty(t, artifact.ID)
	assert.Equal(t, doc.ID, artifact.DocumentID)

	content, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, "Name: Jane Doe, Date: 2024-01-01", string(content))
}

func TestEngine_Fill_MissingRequired(t *testing.T) {
	outDir := t.TempDir()
	engine := NewEngine(outDir)
	doc := placeholderDoc("Hello {{full_name}}")
	fields := []field.Field{
		{ID: "1", Name: "full_name", Kind: field.KindText, Required: true},
	}

	artifact, err := engine.Fill(context.Background(), doc, fields)

	assert.Nil(t, artifact)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Count())
	assert.Equal(t, []string{"full_name"}, verr.Missing)

	entries, readErr := os.ReadDir(outDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no artifact may exist after a failed fill")
}

func TestEngine_Fill_ReportsAllMissing(t *testing.T) {
	engine := NewEngine(t.TempDir())
	doc := placeholderDoc("{{a}} {{b}} {{c}}")
	fields := []field.Field{
		{ID: "1", Name: "a", Kind: field.KindText, Required: true},
		{ID: "2", Name: "b", Kind: field.KindText, Required: true, Value: "  "},
		{ID: "3", Name: "c", Kind: field.KindText, Required: false},
	}

	_, err := engine.Fill(context.Background(), doc, fields)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 2, verr.Count())
	assert.Equal(t, []string{"a", "b"}, verr.Missing)
}

func TestEngine_Fill_OptionalFieldsMayBeEmpty(t *testing.T) {
	engine := NewEngine(t.TempDir())
	doc := placeholderDoc("Note: {{note}}")
	fields := []field.Field{
		{ID: "1", Name: "note", Kind: field.KindText, Required: false},
	}

	artifact, err := engine.Fill(context.Background(), doc, fields)

	require.NoError(t, err)
	content, readErr := os.ReadFile(artifact.Path)
	require.NoError(t, readErr)
	assert.Equal(t, "Note: ", string(content))
}

func TestEngine_Fill_SubstitutesEveryOccurrence(t *testing.T) {
	engine := NewEngine(t.TempDir())
	doc := placeholderDoc("{{name}} and again {{name}}", "page two: {{name}}")
	fields := []field.Field{
		{ID: "1", Name: "name", Kind: field.KindText, Required: true, Value: "Ada"},
	}

	artifact, err := engine.Fill(context.Background(), doc, fields)

	require.NoError(t, err)
	content, readErr := os.ReadFile(artifact.Path)
	require.NoError(t, readErr)
	assert.Equal(t, 3, strings.Count(string(content), "Ada"))
	assert.NotContains(t, string(content), "{{name}}")
	assert.Contains(t, string(content), "--- Page Break ---")
}

func TestEngine_Fill_NoPageContent(t *testing.T) {
	engine := NewEngine(t.TempDir())
	doc := placeholderDoc()
	fields := []field.Field{
		{ID: "1", Name: "a", Kind: field.KindText, Required: true, Value: "x"},
	}

	artifact, err := engine.Fill(context.Background(), doc, fields)

	assert.Nil(t, artifact)
	var perr *ProcessingError
	require.ErrorAs(t, err, &perr)
}

func TestEngine_Fill_NilDocument(t *testing.T) {
	engine := NewEngine(t.TempDir())

	_, err := engine.Fill(context.Background(), nil, nil)

	var perr *ProcessingError
	require.ErrorAs(t, err, &perr)
}

func TestEngine_Fill_CancelledContext(t *testing.T) {
	engine := NewEngine(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Fill(ctx, placeholderDoc("{{a}}"), []field.Field{
		{ID: "1", Name: "a", Kind: field.KindText, Required: true, Value: "x"},
	})

	var perr *ProcessingError
	require.ErrorAs(t, err, &perr)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEngine_Fill_AcroFormUnreadableInput(t *testing.T) {
	outDir := t.TempDir()
	engine := NewEngine(outDir)

	badPDF := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(badPDF, []byte("not a pdf at all"), 0o600))

	doc := &field.Document{
		ID:          "doc-acro",
		Name:        "broken.pdf",
		ContentPath: badPDF,
		HasAcroForm: true,
	}
	fields := []field.Field{
		{ID: "1", Name: "Email", Kind: field.KindText, Required: true, Value: "a@b.c"},
	}

	artifact, err := engine.Fill(context.Background(), doc, fields)

	assert.Nil(t, artifact)
	var perr *ProcessingError
	require.ErrorAs(t, err, &perr)

	entries, readErr := os.ReadDir(outDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no partial artifact after processing failure")
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name    string
		missing []string
		want    string
	}{
		{
			name:    "single_field",
			missing: []string{"email"},
			want:    "1 required field is missing a value: email",
		},
		{
			name:    "multiple_fields",
			missing: []string{"email", "date"},
			want:    "2 required fields are missing values: email, date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &ValidationError{Missing: tt.missing}
			assert.Equal(t, tt.want, err.Error())
		})
	}
}
