package overlay

import "testing"

func TestFormatConfidence(t *testing.T) {
	tests := []struct {
		score    float64
		expected string
	}{
		{97.5, "0.98"},
		{99.99, "1.00"},
		{80.2, "0.80"},
		{0, "0.00"},
		{100, "1.00"},
	}
	for _, tt := range tests {
		if got := FormatConfidence(tt.score); got != tt.expected {
			t.Errorf("FormatConfidence(%v) = %q, want %q", tt.score, got, tt.expected)
		}
	}
}

func TestRemoveDiacritics(t *testing.T) {
	tests := map[string]string{
		"Jiří":       "Jiri",
		"Nguyễn Văn": "Nguyen Van",
		"Jane Doe":   "Jane Doe",
	}
	for input, expected := range tests {
		if got := RemoveDiacritics(input); got != expected {
			t.Errorf("RemoveDiacritics(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestASCIILabel(t *testing.T) {
	if got := asciiLabel("Jiří Novák (CS: 0.81)"); got != "Jiri Novak (CS: 0.81)" {
		t.Errorf("asciiLabel() = %q", got)
	}
	if got := asciiLabel("李\tLi"); got != "? Li" {
		t.Errorf("asciiLabel() = %q, want %q", got, "? Li")
	}
}
