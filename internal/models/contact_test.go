package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"bob@example.com", true},
		{"  bob@example.com  ", true},
		{"", false},
		{"   ", false},
		{"bob", false},
		{"bob@example", false},
		{"bob @example.com", false},
		{"@example.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidEmail(tt.in), "input %q", tt.in)
	}
}

func TestContact_IsUsable(t *testing.T) {
	tests := []struct {
		name string
		c    Contact
		want bool
	}{
		{"name and phone", Contact{Name: "Bob", Phone: "555-1234"}, true},
		{"name and valid email", Contact{Name: "Bob", Email: "bob@example.com"}, true},
		{"name and invalid email", Contact{Name: "Bob", Email: "bob@"}, false},
		{"no name", Contact{Phone: "555-1234"}, false},
		{"blank name", Contact{Name: "  ", Phone: "555-1234"}, false},
		{"name only", Contact{Name: "Bob"}, false},
		{"blank phone", Contact{Name: "Bob", Phone: " "}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.IsUsable())
		})
	}
}

func TestUsableCountAndFilter(t *testing.T) {
	list := []Contact{
		{Name: "A", Phone: "1"},
		{Name: "", Phone: "2"},
		{Name: "C", Email: "c@example.com"},
		{Name: "D"},
	}
	assert.Equal(t, 2, UsableCount(list))
	got := Usable(list)
	assert.Equal(t, []string{"A", "C"}, []string{got[0].Name, got[1].Name})
	assert.Equal(t, 0, UsableCount(nil))
}
