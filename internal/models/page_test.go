package models

import "testing"

func TestNewPage(t *testing.T) {
	cases := []struct {
		name               string
		page, per, total   int
		wantPages          int
		wantPrev, wantNext bool
	}{
		{"empty", 1, 5, 0, 0, false, false},
		{"single partial page", 1, 5, 3, 1, false, false},
		{"first of three", 1, 5, 11, 3, false, true},
		{"middle", 2, 5, 11, 3, true, true},
		{"last exact", 2, 5, 10, 2, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPage(nil, tc.page, tc.per, tc.total)
			if p.Pages != tc.wantPages {
				t.Fatalf("pages: want %d, got %d", tc.wantPages, p.Pages)
			}
			if p.HasPrev != tc.wantPrev || p.HasNext != tc.wantNext {
				t.Fatalf("prev/next: want %v/%v, got %v/%v", tc.wantPrev, tc.wantNext, p.HasPrev, p.HasNext)
			}
			if p.Items == nil {
				t.Fatalf("items must be non-nil for JSON encoding")
			}
		})
	}
}
