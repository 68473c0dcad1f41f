package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageMarks(t *testing.T) {
	t.Parallel()

	const E = Ellipsis
	tests := []struct {
		page, total int
		want        []int
	}{
		{1, 0, nil},
		{1, 1, []int{1}},
		{4, 7, []int{1, 2, 3, 4, 5, 6, 7}},
		{1, 10, []int{1, 2, 3, 4, 5, E, 10}},
		{3, 10, []int{1, 2, 3, 4, 5, E, 10}},
		{4, 10, []int{1, E, 3, 4, 5, E, 10}},
		{7, 10, []int{1, E, 6, 7, 8, E, 10}},
		{8, 10, []int{1, E, 6, 7, 8, 9, 10}},
		{10, 10, []int{1, E, 6, 7, 8, 9, 10}},
		{4, 8, []int{1, E, 3, 4, 5, E, 8}},
		{99, 10, []int{1, E, 6, 7, 8, 9, 10}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PageMarks(tt.page, tt.total), "page=%d total=%d", tt.page, tt.total)
	}
}

func TestPageMarksProperties(t *testing.T) {
	t.Parallel()

	for total := 1; total <= 40; total++ {
		for page := 1; page <= total; page++ {
			marks := PageMarks(page, total)
			seen := map[int]bool{}
			prev := 0
			hasPage := false
			for _, m := range marks {
				if m == Ellipsis {
					continue
				}
				assert.False(t, seen[m], "duplicate %d in %v", m, marks)
				assert.Greater(t, m, prev, "not ascending: %v", marks)
				seen[m] = true
				prev = m
				hasPage = hasPage || m == page
			}
			assert.True(t, seen[1], "first page missing: %v", marks)
			assert.True(t, seen[total], "last page missing: %v", marks)
			assert.True(t, hasPage, "current page missing: page=%d %v", page, marks)
			assert.Equal(t, marks, PageMarks(page, total))
		}
	}
}
