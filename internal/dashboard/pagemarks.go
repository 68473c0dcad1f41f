package dashboard

// Ellipsis is the PageMarks entry for a gap in the page row.
const Ellipsis = 0

// PageMarks lays out the page-number row: first and last page always, a window
// around page, and Ellipsis wherever the window does not touch either end.
func PageMarks(page, totalPages int) []int {
	if totalPages <= 0 {
		return nil
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if totalPages <= 7 {
		out := make([]int, 0, totalPages)
		for i := 1; i <= totalPages; i++ {
			out = append(out, i)
		}
		return out
	}

	switch {
	case page <= 3:
		return []int{1, 2, 3, 4, 5, Ellipsis, totalPages}
	case page >= totalPages-2:
		n := totalPages
		return []int{1, Ellipsis, n - 4, n - 3, n - 2, n - 1, n}
	default:
		return []int{1, Ellipsis, page - 1, page, page + 1, Ellipsis, totalPages}
	}
}
