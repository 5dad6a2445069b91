package parser

import "sort"

// rowTracker maps byte offsets to rows and columns. The source is scanned for
// newlines at most once, front to back, as offsets are requested.
type rowTracker struct {
	src        string
	scanned    int   // prefix of src already scanned for newlines
	lineStarts []int // offset at which each row begins
}

func newRowTracker(src string) *rowTracker {
	return &rowTracker{
		src:        src,
		lineStarts: []int{0},
	}
}

// position returns the 0-based row and column of offset.
func (r *rowTracker) position(offset int) (row, col int) {
	if offset > len(r.src) {
		offset = len(r.src)
	}
	if offset < 0 {
		offset = 0
	}

	for r.scanned < offset {
		if r.src[r.scanned] == '\n' {
			r.lineStarts = append(r.lineStarts, r.scanned+1)
		}
		r.scanned++
	}

	last := len(r.lineStarts) - 1
	if r.lineStarts[last] <= offset {
		return last, offset - r.lineStarts[last]
	}

	// offset lies behind the scan front
	row = sort.Search(len(r.lineStarts), func(i int) bool {
		return r.lineStarts[i] > offset
	}) - 1
	return row, offset - r.lineStarts[row]
}
