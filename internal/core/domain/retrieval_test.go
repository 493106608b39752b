package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterByMinScore(t *testing.T) {
	results := []RetrievalResult{
		{Path: "a", Score: 0.91},
		{Path: "b", Score: 0.20},
		{Path: "c", Score: 0.35},
		{Path: "d", Score: 0.50},
		{Path: "e", Score: 0.349},
	}

	tests := []struct {
		name      string
		threshold float64
		want      []string
	}{
		{"keeps scores at or above threshold", 0.35, []string{"a", "c", "d"}},
		{"zero keeps everything", 0, []string{"a", "b", "c", "d", "e"}},
		{"high threshold keeps nothing", 0.95, []string{}},
		{"exact match is kept", 0.91, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByMinScore(results, tt.threshold)
			paths := make([]string, 0, len(got))
			for _, r := range got {
				assert.GreaterOrEqual(t, r.Score, tt.threshold)
				paths = append(paths, r.Path)
			}
			assert.Equal(t, tt.want, paths)
		})
	}
}

func TestFilterByMinScore_Empty(t *testing.T) {
	assert.Empty(t, FilterByMinScore(nil, 0.5))
}

func TestUniqueByPath(t *testing.T) {
	results := []RetrievalResult{
		{Path: "b.txt", Text: "first b", Score: 0.9},
		{Path: "a.txt", Text: "first a", Score: 0.8},
		{Path: "b.txt", Text: "second b", Score: 0.7},
		{Path: "c.txt", Text: "first c", Score: 0.6},
		{Path: "a.txt", Text: "second a", Score: 0.5},
	}

	got := UniqueByPath(results)

	assert.Len(t, got, 3)
	assert.Equal(t, "first b", got[0].Text)
	assert.Equal(t, "first a", got[1].Text)
	assert.Equal(t, "first c", got[2].Text)
}

func TestUniqueByPath_Empty(t *testing.T) {
	got := UniqueByPath(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
