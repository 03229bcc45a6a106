package match

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ohio State", "ohio st"},
		{"Ohio St", "ohio st"},
		{"Texas A&M", "texas aandm"},
		{"Texas A&M Aggies", "texas aandm aggies"},
		{"  Iowa   Hawkeyes ", "iowa hawkeyes"},
		{"Texas-San Antonio", "texas san antonio"},
		{"Western Ill", "western illinois"},
		{"West Va", "west virginia"},
		{"Miami University", "miami"},
		{"St. John's", "st johns"},
		{"UCF", "ucf"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
