package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"only spaces", "   ", ""},
		{"leading and trailing", "  Villa Azure  ", "Villa Azure"},
		{"internal run", "Villa   Azure", "Villa Azure"},
		{"tabs and newlines", "Villa\t\nAzure", "Villa Azure"},
		{"control chars dropped", "Villa\x00Azure", "VillaAzure"},
		{"already clean", "Villa Azure", "Villa Azure"},
		{"unicode preserved", "Café  Ümlaut", "Café Ümlaut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeDisplayNameIdempotent(t *testing.T) {
	input := "  Sunset   Breeze \t Yacht "
	once := SanitizeDisplayName(input)
	twice := SanitizeDisplayName(once)
	if once != twice {
		t.Errorf("sanitization not idempotent: %q vs %q", once, twice)
	}
}
