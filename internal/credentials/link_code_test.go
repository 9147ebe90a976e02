package credentials

import "testing"

func TestGenerateLinkCode(t *testing.T) {
	tests := []struct {
		name        string
		iterations  int
		shouldMatch bool
	}{
		{
			name:       "generates codes of correct shape",
			iterations: 100,
		},
		{
			name:        "generates unique codes",
			iterations:  20,
			shouldMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := make(map[string]bool)
			for i := 0; i < tt.iterations; i++ {
				code, err := GenerateLinkCode()
				if err != nil {
					t.Fatalf("GenerateLinkCode() error: %v", err)
				}

				if !IsLinkCode(code) {
					t.Errorf("code %q is not a valid link code", code)
				}

				if !tt.shouldMatch {
					if codes[code] {
						t.Errorf("duplicate code generated: %s", code)
					}
					codes[code] = true
				}
			}
		})
	}
}

func TestIsLinkCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"ABC234", true},
		{"abc234", false},
		{"ABC23", false},
		{"ABC2345", false},
		{"ABCO12", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsLinkCode(tt.code); got != tt.want {
			t.Errorf("IsLinkCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
