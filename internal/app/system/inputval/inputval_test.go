package inputval

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"traveler@example.com", true},
		{"first.last@example.com", true},
		{"traveler+lisbon@example.com", true},
		{"a@b.co", true},
		{"ops@localhost", true},
		{"  padded@example.com  ", true},

		{"", false},
		{"   ", false},
		{"traveler", false},
		{"traveler@", false},
		{"@example.com", false},
		{".traveler@example.com", false},
		{"traveler.@example.com", false},
		{"first..last@example.com", false},
		{"traveler@.example.com", false},
		{"traveler@example..com", false},
		{"Trip Owner <owner@example.com>", false},
		{"trip owner@example.com", false},
		{"owner@exam ple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}
