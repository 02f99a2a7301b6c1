package textutil

import (
	"slices"
	"testing"
)

func TestSortNaturalOrdersDigitRunsNumerically(t *testing.T) {
	values := []string{"img2", "img10", "img1"}
	SortNatural(values)
	want := []string{"img1", "img2", "img10"}
	if !slices.Equal(values, want) {
		t.Fatalf("got %v, want %v", values, want)
	}
}

func TestSortNaturalMixedCaseAndRuns(t *testing.T) {
	values := []string{"Frame10b", "frame2", "frame10a", "FRAME1", "frame10"}
	SortNatural(values)
	want := []string{"FRAME1", "frame2", "frame10", "frame10a", "Frame10b"}
	if !slices.Equal(values, want) {
		t.Fatalf("got %v, want %v", values, want)
	}
}

func TestNaturalCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"a", "a", 0},
		{"a2", "a10", -1},
		{"a10", "a2", 1},
		{"img007", "img7", 1},
		{"img7", "img007", -1},
		{"a07b", "a7c", 1},   // leading zeros decide before later runs
		{"Img7", "img7", -1}, // equal keys fall back to byte order
		{"1abc", "abc", -1},
		{"abc", "ABD", -1},
		{"x99999999999999999999999", "x100000000000000000000000", -1},
		{"", "a", -1},
		{"scan", "scan1", -1},
	}
	for _, tc := range cases {
		if got := NaturalCompare(tc.a, tc.b); got != tc.want {
			t.Errorf("NaturalCompare(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
