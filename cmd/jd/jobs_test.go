package main

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Senior Gopher", "senior-gopher"},
		{"Staff Engineer, Storage (Remote)", "staff-engineer-storage-remote"},
		{"  C++ / Go  ", "c-go"},
		{"already-a-slug", "already-a-slug"},
		{"Engineer II", "engineer-ii"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
