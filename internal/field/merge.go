package field

// Merge combines a template's fields with freshly extracted ones.
// The template fields come first and win on name collision; extracted
// fields whose names are not taken are appended in extraction order.
// Deduplication is by exact, case-sensitive name, keeping the first
// occurrence. Merge is pure: it allocates a new list and never mutates
// either input.
func Merge(templateFields, extracted []Field) []Field {
	merged := make([]Field, 0, len(templateFields)+len(extracted))
	seen := make(map[string]struct{}, len(templateFields)+len(extracted))

	for _, lists := range [][]Field{templateFields, extracted} {
		for _, f := range lists {
			if _, dup := seen[f.Name]; dup {
				continue
			}
			seen[f.Name] = struct{}{}
			merged = append(merged, f)
		}
	}

	return merged
}

// Append adds f to list unless a field with the same name is already
// present, applying the same first-occurrence-wins rule as Merge. It
// returns the resulting list and whether f was added.
func Append(list []Field, f Field) ([]Field, bool) {
	for _, existing := range list {
		if existing.Name == f.Name {
			return list, false
		}
	}
	return append(list, f), true
}
