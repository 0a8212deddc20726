package validation

import "testing"

func TestNormalizeCPF(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "formatted", in: "123.456.789-00", want: "12345678900"},
		{name: "digits only", in: "12345678900", want: "12345678900"},
		{name: "spaces and letters", in: " 123 abc 456 ", want: "123456"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCPF(tt.in); got != tt.want {
				t.Fatalf("NormalizeCPF(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidCPF(t *testing.T) {
	tests := []struct {
		name  string
		cpf   string
		valid bool
	}{
		{name: "formatted", cpf: "111.111.111-11", valid: true},
		{name: "digits", cpf: "12345678900", valid: true},
		{name: "too short", cpf: "123.456.789-0", valid: false},
		{name: "too long", cpf: "123456789001", valid: false},
		{name: "empty", cpf: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidCPF(tt.cpf); got != tt.valid {
				t.Fatalf("IsValidCPF(%q) = %v, want %v", tt.cpf, got, tt.valid)
			}
		})
	}
}

func TestFormatCPF(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "12345678900", want: "123.456.789-00"},
		{in: "123.456.789-00", want: "123.456.789-00"},
		{in: "1234567890099", want: "123.456.789-00"},
		{in: "12345", want: "12345"},
	}

	for _, tt := range tests {
		if got := FormatCPF(tt.in); got != tt.want {
			t.Fatalf("FormatCPF(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "mobile", in: "46999846550", want: "(46) 99984-6550"},
		{name: "landline", in: "4632221111", want: "(46) 3222-1111"},
		{name: "already formatted", in: "(46) 99984-6550", want: "(46) 99984-6550"},
		{name: "truncated", in: "469998465501234", want: "(46) 99984-6550"},
		{name: "incomplete", in: "4699", want: "4699"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatPhone(tt.in); got != tt.want {
				t.Fatalf("FormatPhone(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidOrderNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		valid  bool
	}{
		{name: "canonical", number: "JE98765432", valid: true},
		{name: "lower case with spaces", number: "  je98765432 ", valid: true},
		{name: "short", number: "JE1234567", valid: false},
		{name: "wrong prefix", number: "XX98765432", valid: false},
		{name: "letters", number: "JE9876543A", valid: false},
		{name: "empty", number: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidOrderNumber(tt.number); got != tt.valid {
				t.Fatalf("IsValidOrderNumber(%q) = %v, want %v", tt.number, got, tt.valid)
			}
		})
	}
}
