package fulfillment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamesMatch(t *testing.T) {
	tests := []struct {
		claimed string
		actual  string
		want    bool
	}{
		{"Isaiah Johnson", "isaiah johnson", true},
		{"Isaiah", "Isaiah Johnson", true},
		{"Isaiah Johnson", "Isaiah", true},
		{"johnathan", "john", true}, // prefix tier
		{"Ava", "Isaiah Johnson", false},
		{"", "Isaiah", false},
		{"Isaiah", "", false},
		{"  Isaiah  ", "ISAIAH", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, namesMatch(tt.claimed, tt.actual),
			"namesMatch(%q, %q)", tt.claimed, tt.actual)
	}
}

func TestDatesMatch(t *testing.T) {
	tests := []struct {
		claimed string
		actual  string
		want    bool
	}{
		{"2026-03-14", "2026-03-14T09:30:00Z", true},
		{"2026-03-14T09:30:00Z", "2026-03-14", true},
		{"2026-03-15", "2026-03-14T09:30:00Z", false},
		{"", "2026-03-14", false},
		{"2026-03-14", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, datesMatch(tt.claimed, tt.actual),
			"datesMatch(%q, %q)", tt.claimed, tt.actual)
	}
}

func TestNormalizeSubject(t *testing.T) {
	assert.Equal(t, "isaiah", normalizeSubject("  Isaiah "))
	assert.Equal(t, "", normalizeSubject("   "))
}
