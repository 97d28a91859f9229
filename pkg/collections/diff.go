// Package collections holds small generic helpers for reconciling lists of
// referenced documents.
package collections

// Changes is the result of comparing an existing collection against a desired key list.
type Changes[K comparable, ID any] struct {
	// NewItems are desired keys with no existing entry, in request order.
	NewItems []K
	// RemovedIDs are ids of existing entries whose key is no longer desired.
	RemovedIDs []ID
	// KeptIDs are ids of existing entries whose key is still desired, in existing order.
	KeptIDs []ID
}

// Diff compares existing items with the desired keys. Entries are matched by key only,
// so an unchanged key keeps its id and produces no create/remove churn. Duplicate
// desired keys are collapsed to their first occurrence.
func Diff[T any, K comparable, ID any](existing []T, desired []K, key func(T) K, id func(T) ID) Changes[K, ID] {
	want := make(map[K]struct{}, len(desired))
	for _, k := range desired {
		want[k] = struct{}{}
	}

	var out Changes[K, ID]
	have := make(map[K]struct{}, len(existing))
	for _, item := range existing {
		k := key(item)
		if _, dup := have[k]; dup {
			continue
		}
		have[k] = struct{}{}
		if _, ok := want[k]; ok {
			out.KeptIDs = append(out.KeptIDs, id(item))
		} else {
			out.RemovedIDs = append(out.RemovedIDs, id(item))
		}
	}

	seen := make(map[K]struct{}, len(desired))
	for _, k := range desired {
		if _, ok := have[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out.NewItems = append(out.NewItems, k)
	}
	return out
}
