package utils

import (
	"testing"
)

func TestSanitizeAccountName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rescue-1", "rescue-1"},
		{"Rescue 1", "rescue.1"},
		{"Air/Sea Unit", "air.sea.unit"},
		{"already.fine", "already.fine"},
	}

	for _, tt := range tests {
		if got := SanitizeAccountName(tt.in); got != tt.want {
			t.Errorf("SanitizeAccountName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRandomLowercase(t *testing.T) {
	src := NewStringSource(1)

	got := src.RandomLowercase(12)
	if len(got) != 12 {
		t.Fatalf("Expected 12 characters, got %d", len(got))
	}
	for _, c := range got {
		if c < 'a' || c > 'z' {
			t.Errorf("Expected lowercase ASCII only, got %q", got)
		}
	}
}

func TestRandomLowercaseSeeded(t *testing.T) {
	a := NewStringSource(42).RandomLowercase(10)
	b := NewStringSource(42).RandomLowercase(10)
	if a != b {
		t.Errorf("Same seed should produce same string: %q != %q", a, b)
	}
}
