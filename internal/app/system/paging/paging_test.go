package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/reports", nil)
	p := Parse(r)
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Errorf("got page=%d limit=%d, want 1/%d", p.Page, p.Limit, DefaultLimit)
	}
	if p.Skip() != 0 {
		t.Errorf("Skip() = %d, want 0", p.Skip())
	}
}

func TestParse_Clamping(t *testing.T) {
	r := httptest.NewRequest("GET", "/reports?page=0&limit=9999", nil)
	p := Parse(r)
	if p.Page != 1 {
		t.Errorf("page = %d, want 1", p.Page)
	}
	if p.Limit != MaxLimit {
		t.Errorf("limit = %d, want %d", p.Limit, MaxLimit)
	}
}

func TestParse_Skip(t *testing.T) {
	r := httptest.NewRequest("GET", "/reports?page=3&limit=10", nil)
	p := Parse(r)
	if p.Skip() != 20 {
		t.Errorf("Skip() = %d, want 20", p.Skip())
	}
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(Params{Page: 2, Limit: 10}, 35)
	if m.TotalPages != 4 {
		t.Errorf("TotalPages = %d, want 4", m.TotalPages)
	}
	if !m.HasNext || !m.HasPrev {
		t.Errorf("expected HasNext and HasPrev, got %+v", m)
	}

	empty := NewMeta(Params{Page: 1, Limit: 10}, 0)
	if empty.TotalPages != 1 || empty.HasNext || empty.HasPrev {
		t.Errorf("unexpected meta for empty result: %+v", empty)
	}
}
