// Copyright (c) 2025 BVK Chaitanya

package social

import "testing"

func TestCompareIDs(t *testing.T) {
	type testCase struct {
		a, b string
		want int
	}
	testCases := []testCase{
		{"5", "3", 1},
		{"3", "5", -1},
		{"10", "9", 1},
		{"", "1", -1},
		{"1790000000000000001", "1790000000000000001", 0},
		{"1790000000000000002", "999999999999999999", 1},
	}
	for _, tc := range testCases {
		if got := CompareIDs(tc.a, tc.b); got != tc.want {
			t.Fatalf("CompareIDs(%q, %q): wanted %d, got %d", tc.a, tc.b, tc.want, got)
		}
	}
}

func TestSortOldestFirst(t *testing.T) {
	ms := []*Mention{{ID: "12"}, {ID: "5"}, {ID: "100"}, {ID: "3"}}
	SortOldestFirst(ms)
	for i, want := range []string{"3", "5", "12", "100"} {
		if ms[i].ID != want {
			t.Fatalf("wanted %s at %d, got %s", want, i, ms[i].ID)
		}
	}
	if id := MaxID("7", ms); id != "100" {
		t.Fatalf("wanted 100, got %s", id)
	}
	if id := MaxID("200", ms); id != "200" {
		t.Fatalf("wanted 200, got %s", id)
	}
}
