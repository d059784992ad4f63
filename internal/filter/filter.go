package filter

import "strings"

type Predicate[T any] func(T) bool

// Apply keeps the items that satisfy every predicate.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if All(item, preds...) {
			out = append(out, item)
		}
	}
	return out
}

func All[T any](item T, preds ...Predicate[T]) bool {
	for _, pred := range preds {
		if pred != nil && !pred(item) {
			return false
		}
	}
	return true
}

// searchKeySeparator keeps a query from matching across two fields.
const searchKeySeparator = "\x1f"

// FoldQuery normalizes a free-text query the way MatchText compares it.
func FoldQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// SearchKey folds fields into one lowercased string. A folded query that
// contains no separator matches SearchKey(fields...) exactly when MatchText
// matches fields.
func SearchKey(fields ...string) string {
	folded := make([]string, len(fields))
	for i, field := range fields {
		folded[i] = strings.ToLower(field)
	}
	return strings.Join(folded, searchKeySeparator)
}

// MatchText is a case-insensitive substring match of query against any field.
// An empty query matches everything.
func MatchText(query string, fields ...string) bool {
	needle := FoldQuery(query)
	if needle == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
