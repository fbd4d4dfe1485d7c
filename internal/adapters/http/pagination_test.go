package http

import (
	"math"
	"testing"
)

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, p := paginate(items, Pagination{Offset: 3, Limit: 10})
	if len(page) != 2 || page[0] != 4 || p.Total != 5 {
		t.Errorf("unexpected tail page %v %+v", page, p)
	}

	page, p = paginate(items, Pagination{Offset: math.MaxInt, Limit: maxPageLimit})
	if page == nil || len(page) != 0 {
		t.Errorf("expected empty non-nil page, got %v", page)
	}
	if p.Offset != 5 {
		t.Errorf("expected offset clamped to total, got %d", p.Offset)
	}
	if next := p.Offset + p.Limit; next < 0 {
		t.Errorf("next offset overflowed: %d", next)
	}
}
