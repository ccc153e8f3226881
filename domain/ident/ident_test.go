package ident_test

import (
	"strings"
	"testing"

	"github.com/artpar/contentcore/domain/ident"
)

func TestGenerate_RoundTrip(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := ident.Generate()
		if !ident.IsIdentifier(id) {
			t.Fatalf("IsIdentifier(%q) = false, want true", id)
		}
		if len(id) != 36 {
			t.Errorf("len(%q) = %d, want 36", id, len(id))
		}
		if id[14] != '4' {
			t.Errorf("version nibble of %q = %c, want 4", id, id[14])
		}
		if !strings.ContainsRune("89ab", rune(id[19])) {
			t.Errorf("variant nibble of %q = %c, want one of 89ab", id, id[19])
		}
		if seen[id] {
			t.Fatalf("duplicate identifier %q", id)
		}
		seen[id] = true
	}
}

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"canonical", "123e4567-e89b-12d3-a456-426614174000", true},
		{"uppercase", "123E4567-E89B-12D3-A456-426614174000", true},
		{"not a uuid", "not-a-uuid", false},
		{"empty", "", false},
		{"version 0", "123e4567-e89b-02d3-a456-426614174000", false},
		{"bad variant", "123e4567-e89b-12d3-c456-426614174000", false},
		{"no hyphens", "123e4567e89b12d3a456426614174000", false},
		{"braced", "{123e4567-e89b-12d3-a456-426614174000}", false},
		{"number", 42, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ident.IsIdentifier(tt.value); got != tt.want {
				t.Errorf("IsIdentifier(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestAllIdentifiers(t *testing.T) {
	if !ident.AllIdentifiers(nil) {
		t.Error("AllIdentifiers(nil) = false, want true")
	}
	ids := []string{ident.Generate(), ident.Generate()}
	if !ident.AllIdentifiers(ids) {
		t.Errorf("AllIdentifiers(%v) = false, want true", ids)
	}
	if ident.AllIdentifiers(append(ids, "x")) {
		t.Error("AllIdentifiers with invalid element = true, want false")
	}
}
