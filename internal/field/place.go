package field

import (
	"fmt"
	"strings"
)

// Default box dimensions for manually placed fields.
const (
	placedWidth  = 200
	placedHeight = 30
)

// PlaceAt converts a click coordinate plus page number into a new field
// for manual authoring. Placed fields are optional text inputs; the
// caller is responsible for appending the result into a document's list
// via Append so that name collisions follow the usual dedup rule.
func PlaceAt(x, y float64, page int, name string) (Field, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Field{}, fmt.Errorf("placed field name cannot be empty")
	}
	if page < 1 {
		return Field{}, fmt.Errorf("page must be 1-based, got %d", page)
	}

	f := New(name, KindText, false, "Enter "+strings.ToLower(name))
	f.Position = &Rect{X: x, Y: y, Width: placedWidth, Height: placedHeight}
	f.Page = page
	return f, nil
}
