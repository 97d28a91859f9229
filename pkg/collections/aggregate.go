package collections

// Count is the number of times Item occurred.
type Count[K comparable] struct {
	Item  K
	Count int
}

// CountOccurrences tallies items by value, returning one entry per distinct item in
// first-seen order.
func CountOccurrences[K comparable](items []K) []Count[K] {
	idx := make(map[K]int, len(items))
	var out []Count[K]
	for _, it := range items {
		if i, ok := idx[it]; ok {
			out[i].Count++
			continue
		}
		idx[it] = len(out)
		out = append(out, Count[K]{Item: it, Count: 1})
	}
	return out
}

// Unique returns items without duplicates, keeping first occurrences in order.
func Unique[K comparable](items []K) []K {
	seen := make(map[K]struct{}, len(items))
	out := make([]K, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
