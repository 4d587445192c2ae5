package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbuddy/docfill/internal/field"
)

func TestExtractor_Extract_Placeholders(t *testing.T) {
	tests := []struct {
		name      string
		pages     []PageText
		wantNames []string
	}{
		{
			name:      "single_placeholder",
			pages:     []PageText{{Number: 1, Text: "Hello {{full_name}}!"}},
			wantNames: []string{"full_name"},
		},
		{
			name:      "duplicates_collapse_to_first",
			pages:     []PageText{{Number: 1, Text: "{{a}} then {{a}} then {{b}}"}},
			wantNames: []string{"a", "b"},
		},
		{
			name: "duplicates_across_pages",
			pages: []PageText{
				{Number: 1, Text: "Sign here: {{signature}}"},
				{Number: 2, Text: "Countersign: {{signature}} on {{date}}"},
			},
			wantNames: []string{"signature", "date"},
		},
		{
			name:      "whitespace_trimmed",
			pages:     []PageText{{Number: 1, Text: "{{  full_name  }} and {{full_name}}"}},
			wantNames: []string{"full_name"},
		},
		{
			name:      "case_sensitive_names",
			pages:     []PageText{{Number: 1, Text: "{{Email}} vs {{email}}"}},
			wantNames: []string{"Email", "email"},
		},
		{
			name:      "malformed_braces_ignored",
			pages:     []PageText{{Number: 1, Text: "{{}} {single} {{unclosed and {{real}}"}},
			wantNames: []string{"unclosed and {{real"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewExtractor().Extract(context.Background(), tt.pages, nil)

			require.NoError(t, res.Warning)
			require.Len(t, res.Fields, len(tt.wantNames))
			for i, f := range res.Fields {
				assert.Equal(t, tt.wantNames[i], f.Name)
				assert.Equal(t, field.KindText, f.Kind)
				assert.True(t, f.Required)
				assert.Equal(t, "Enter "+tt.wantNames[i], f.PlaceholderHint)
			}
		})
	}
}

func TestExtractor_Extract_DefaultPositions(t *testing.T) {
	pages := []PageText{{Number: 1, Text: "{{a}} {{b}} {{c}}"}}

	res := NewExtractor().Extract(context.Background(), pages, nil)

	require.Len(t, res.Fields, 3)
	for i, f := range res.Fields {
		require.NotNil(t, f.Position)
		assert.Equal(t, float64(defaultX), f.Position.X)
		assert.Equal(t, float64(defaultY+i*rowStep), f.Position.Y)
		assert.Equal(t, float64(defaultWidth), f.Position.Width)
		assert.Equal(t, float64(defaultHeight), f.Position.Height)
		assert.Equal(t, 1, f.Page)
	}
}

func TestExtractor_Extract_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		pages []PageText
	}{
		{name: "nil_pages", pages: nil},
		{name: "empty_pages", pages: []PageText{{Number: 1, Text: ""}}},
		{name: "no_markers", pages: []PageText{{Number: 1, Text: "plain prose without markers"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewExtractor().Extract(context.Background(), tt.pages, nil)

			assert.Error(t, res.Warning, "fallback must be surfaced as a warning")
			require.Len(t, res.Fields, 4)
			assert.Equal(t, "full_name", res.Fields[0].Name)
			assert.Equal(t, "company", res.Fields[1].Name)
			assert.Equal(t, "date", res.Fields[2].Name)
			assert.Equal(t, field.KindDate, res.Fields[2].Kind)
			assert.Equal(t, "signature", res.Fields[3].Name)
			assert.Equal(t, 2, res.Fields[3].Page)
		})
	}
}

func TestExtractor_Extract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewExtractor().Extract(ctx, []PageText{{Number: 1, Text: "{{a}}"}}, nil)

	assert.Error(t, res.Warning)
	assert.Len(t, res.Fields, 4, "cancelled extraction still yields the fallback set")
}

func TestExtractor_Extract_NativePrecedence(t *testing.T) {
	pages := []PageText{{Number: 1, Text: "Contact: {{Email}}"}}
	native := []NativeField{
		{
			Name: "Email",
			Kind: field.KindText,
			Rect: &field.Rect{X: 72, Y: 640, Width: 180, Height: 22},
			Page: 3,
		},
		{
			Name:    "Country",
			Kind:    field.KindSelect,
			Options: []string{"US", "IN", "DE"},
			Rect:    &field.Rect{X: 72, Y: 600, Width: 180, Height: 22},
			Page:    3,
		},
	}

	res := NewExtractor().Extract(context.Background(), pages, native)

	require.NoError(t, res.Warning)
	require.Len(t, res.Fields, 2)

	email := res.Fields[0]
	assert.Equal(t, "Email", email.Name)
	assert.Equal(t, 3, email.Page, "native page wins")
	require.NotNil(t, email.Position)
	assert.Equal(t, 72.0, email.Position.X, "native position wins")
	assert.True(t, email.Required, "placeholder required flag kept as default")
	assert.Equal(t, "Enter Email", email.PlaceholderHint, "placeholder hint kept as default")

	country := res.Fields[1]
	assert.Equal(t, "Country", country.Name)
	assert.Equal(t, field.KindSelect, country.Kind)
	assert.Equal(t, []string{"US", "IN", "DE"}, country.Options)
}

func TestExtractor_Extract_NativeOnly(t *testing.T) {
	native := []NativeField{
		{Name: "Account", Kind: field.KindNumber, Required: true, Page: 1},
		{Name: "Notes", Kind: field.KindText, Value: "prefilled"},
	}

	res := NewExtractor().Extract(context.Background(), nil, native)

	require.NoError(t, res.Warning)
	require.Len(t, res.Fields, 2)
	assert.Equal(t, field.KindNumber, res.Fields[0].Kind)
	assert.True(t, res.Fields[0].Required)
	assert.Equal(t, "prefilled", res.Fields[1].Value)
}

func TestExtractor_Extract_NativeUnknownKind(t *testing.T) {
	native := []NativeField{{Name: "Misc", Kind: field.Kind("blob")}}

	res := NewExtractor().Extract(context.Background(), nil, native)

	require.NoError(t, res.Warning)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, field.KindText, res.Fields[0].Kind)
}

func TestExtractor_Extract_RoundTripNames(t *testing.T) {
	pages := []PageText{{Number: 1, Text: "Name: {{full_name}}, Date: {{date}}"}}

	res := NewExtractor().Extract(context.Background(), pages, nil)

	require.NoError(t, res.Warning)
	require.Len(t, res.Fields, 2)
	assert.Equal(t, "full_name", res.Fields[0].Name)
	assert.Equal(t, "date", res.Fields[1].Name)
}
