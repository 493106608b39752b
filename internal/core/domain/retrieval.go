package domain

// RetrievalResult is a passage returned for a query.
type RetrievalResult struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Path  string  `json:"path"`
	Hash  string  `json:"hash"`
}

// FilterByMinScore returns the results scoring at least minScore,
// keeping their relative order.
func FilterByMinScore(results []RetrievalResult, minScore float64) []RetrievalResult {
	out := make([]RetrievalResult, 0, len(results))
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out
}

// UniqueByPath keeps the first result for each path, in first-seen order.
func UniqueByPath(results []RetrievalResult) []RetrievalResult {
	seen := make(map[string]struct{}, len(results))
	out := make([]RetrievalResult, 0, len(results))
	for _, r := range results {
		if _, ok := seen[r.Path]; ok {
			continue
		}
		seen[r.Path] = struct{}{}
		out = append(out, r)
	}
	return out
}
