// Copyright (c) 2025 BVK Chaitanya

package bot

import (
	"slices"
	"testing"
)

func TestSplitList(t *testing.T) {
	if vs := splitList(" SOL, ,JUP,"); !slices.Equal(vs, []string{"SOL", "JUP"}) {
		t.Fatalf("wanted [SOL JUP], got %v", vs)
	}
	if vs := splitList(""); len(vs) != 0 {
		t.Fatalf("wanted empty list, got %v", vs)
	}
}
