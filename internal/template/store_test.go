package template

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docbuddy/docfill/internal/field"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "templates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleFields() []field.Field {
	return []field.Field{
		{Name: "Email", Kind: field.KindText, Required: true, PlaceholderHint: "Enter email"},
		{Name: "Country", Kind: field.KindSelect, Options: []string{"US", "IN"}},
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Onboarding", "New hire paperwork", sampleFields())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", got.Name)
	assert.Equal(t, "New hire paperwork", got.Description)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, "Email", got.Fields[0].Name)
	assert.True(t, got.Fields[0].Required)
	assert.Equal(t, []string{"US", "IN"}, got.Fields[1].Options)
}

func TestStore_Create_StripsPositions(t *testing.T) {
	store := newTestStore(t)

	fields := []field.Field{{
		Name: "Email", Kind: field.KindText,
		Position: &field.Rect{X: 1, Y: 2, Width: 3, Height: 4}, Page: 2,
	}}
	created, err := store.Create(context.Background(), "T", "", fields)

	require.NoError(t, err)
	assert.Nil(t, created.Fields[0].Position, "templates are position-free schemas")
	assert.Zero(t, created.Fields[0].Page)
}

func TestStore_Create_Invalid(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		tmpl   string
		fields []field.Field
	}{
		{name: "empty_name", tmpl: "  ", fields: sampleFields()},
		{name: "no_fields", tmpl: "T", fields: nil},
		{
			name: "invalid_field_kind",
			tmpl: "T",
			fields: []field.Field{{Name: "x", Kind: field.Kind("blob")}},
		},
		{
			name: "duplicate_field_names",
			tmpl: "T",
			fields: []field.Field{
				{Name: "Email", Kind: field.KindText},
				{Name: "Email", Kind: field.KindText},
			},
		},
		{
			name: "select_without_options",
			tmpl: "T",
			fields: []field.Field{{Name: "Country", Kind: field.KindSelect}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.tmpl, "", tt.fields)
			assert.Error(t, err)
		})
	}
}

func TestStore_List(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	empty, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = store.Create(ctx, "First", "", sampleFields())
	require.NoError(t, err)
	_, err = store.Create(ctx, "Second", "", sampleFields())
	require.NoError(t, err)

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "Doomed", "", sampleFields())
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, created.ID))

	_, err = store.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, created.ID), ErrNotFound)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
