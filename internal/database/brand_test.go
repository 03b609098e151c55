package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single word", "FamilyMart", "familymart"},
		{"spaces become hyphens", "Seven Eleven", "seven-eleven"},
		{"whitespace runs collapse", "Mos  \t Burger", "mos-burger"},
		{"already a slug", "lawson", "lawson"},
		{"surrounding whitespace trimmed", "  Sukiya ", "sukiya"},
		{"mixed case", "YOSHINOYA Japan", "yoshinoya-japan"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}
