package mef

import "sort"

// normalizeIndices resolves negative indices against n and bounds-checks the
// result. Order is preserved; no deduplication happens.
func normalizeIndices(indices []int, n int) ([]int, error) {
	out := make([]int, len(indices))
	for i, idx := range indices {
		if idx < 0 {
			idx += n
		}
		if idx < 0 || idx >= n {
			return nil, errf(ErrKindIndex, "extension index %d out of range (%d extensions)", indices[i], n)
		}
		out[i] = idx
	}
	return out, nil
}

// rangeIndices expands a [start, stop) range with Python slice clamping
// semantics: out-of-range bounds clamp instead of failing.
func rangeIndices(start, stop, n int) []int {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop > n {
		stop = n
	}
	var out []int
	for i := start; i < stop; i++ {
		out = append(out, i)
	}
	return out
}

func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
