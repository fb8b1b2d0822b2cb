package entities

// Identified is implemented by every row type held in a snapshot collection
type Identified interface {
	GetID() string
}

// UpsertByID returns a new slice with item replacing the row that has the same
// id, or appended when no row matches. Row order is preserved.
func UpsertByID[T Identified](rows []T, item T) []T {
	out := make([]T, 0, len(rows)+1)
	replaced := false
	for _, row := range rows {
		if row.GetID() == item.GetID() {
			out = append(out, item)
			replaced = true
			continue
		}
		out = append(out, row)
	}
	if !replaced {
		out = append(out, item)
	}
	return out
}

// DeleteByID returns a new slice without the row carrying id
func DeleteByID[T Identified](rows []T, id string) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if row.GetID() != id {
			out = append(out, row)
		}
	}
	return out
}

// IndexByID maps ids to rows; the first row wins on duplicate ids
func IndexByID[T Identified](rows []T) map[string]T {
	out := make(map[string]T, len(rows))
	for _, row := range rows {
		if _, exists := out[row.GetID()]; !exists {
			out[row.GetID()] = row
		}
	}
	return out
}
