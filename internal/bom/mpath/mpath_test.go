package mpath

import "testing"

func TestSegment(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0000"},
		{1, "0001"},
		{35, "000Z"},
		{36, "0010"},
		{maxSegment, "ZZZZ"},
	}
	for _, tt := range tests {
		got, err := Segment(tt.n)
		if err != nil {
			t.Fatalf("Segment(%d) error: %v", tt.n, err)
		}
		if got != tt.want {
			t.Errorf("Segment(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}

	if _, err := Segment(maxSegment + 1); err != ErrOverflow {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
}

func TestNext(t *testing.T) {
	got, err := Next("0001000Z")
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if got != "00010010" {
		t.Errorf("Next = %q, want 00010010", got)
	}

	if _, err := Next("ZZZZ"); err != ErrOverflow {
		t.Errorf("expected ErrOverflow, got %v", err)
	}
	if _, err := Next("001"); err != ErrInvalidPath {
		t.Errorf("expected ErrInvalidPath, got %v", err)
	}
}

func TestParentAndDepth(t *testing.T) {
	path := First(First(First("")))
	if path != "000100010001" {
		t.Fatalf("unexpected path %q", path)
	}
	if Depth(path) != 3 {
		t.Errorf("Depth = %d, want 3", Depth(path))
	}
	if Parent(path) != "00010001" {
		t.Errorf("Parent = %q", Parent(path))
	}
	if Parent("0001") != "" {
		t.Errorf("root parent should be empty")
	}
	if !IsDescendant(path, "0001") || IsDescendant(path, "0002") {
		t.Errorf("IsDescendant mismatch")
	}
}

func TestOrderingMatchesPreorder(t *testing.T) {
	// 字节序比较即先序遍历顺序
	a := "0001"
	aChild := "00010001"
	b, _ := Next(a)
	if !(a < aChild && aChild < b) {
		t.Errorf("expected %q < %q < %q", a, aChild, b)
	}
	nine, _ := Segment(9)
	ten, _ := Segment(10)
	if !(nine < ten) {
		t.Errorf("expected %q < %q", nine, ten)
	}
}
