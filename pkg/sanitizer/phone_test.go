package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already E.164",
			input: "+16502530000",
			want:  "+16502530000",
		},
		{
			name:  "with spaces and dashes",
			input: "+1 650-253-0000",
			want:  "+16502530000",
		},
		{
			name:  "national format falls back to first region",
			input: "(650) 253-0000",
			want:  "+16502530000",
		},
		{
			name:  "spanish landline",
			input: "+34 912 345 678",
			want:  "+34912345678",
		},
		{
			name:  "surrounding whitespace",
			input: "  +34912345678  ",
			want:  "+34912345678",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
		{
			name:  "too short",
			input: "123",
			want:  "",
		},
		{
			name:  "letters",
			input: "call me",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	once := NormalizePhone("+1 650 253 0000")
	if twice := NormalizePhone(once); twice != once {
		t.Errorf("not idempotent: %q then %q", once, twice)
	}
}
