package helpers

import "testing"

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"alice@example.com", true},
		{"alice.wong+events@mail.example.hk", true},
		{"a@b.co", true},
		{"", false},
		{"alice", false},
		{"alice@example", false},
		{"alice @example.com", false},
		{"@example.com", false},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestIsE164(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"+85212345678", true},
		{"+14155552671", true},
		{"+12", true},
		{"85212345678", false},
		{"+0123456", false},
		{"+852 1234 5678", false},
		{"", false},
		{"+", false},
	}

	for _, tt := range tests {
		if got := IsE164(tt.number); got != tt.want {
			t.Errorf("IsE164(%q) = %v, want %v", tt.number, got, tt.want)
		}
	}
}

func TestIsValidContactMethod(t *testing.T) {
	tests := []struct {
		method string
		want   bool
	}{
		{"whatsapp", true},
		{"email", true},
		{"phone", true},
		{"sms", false},
		{"WhatsApp", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidContactMethod(tt.method); got != tt.want {
			t.Errorf("IsValidContactMethod(%q) = %v, want %v", tt.method, got, tt.want)
		}
	}
}

func TestRequiresInternationalNumber(t *testing.T) {
	tests := []struct {
		method string
		want   bool
	}{
		{"whatsapp", true},
		{"phone", true},
		{"email", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := RequiresInternationalNumber(tt.method); got != tt.want {
			t.Errorf("RequiresInternationalNumber(%q) = %v, want %v", tt.method, got, tt.want)
		}
	}
}

func TestHasInternationalPrefix(t *testing.T) {
	if !HasInternationalPrefix("+85212345678") {
		t.Error("HasInternationalPrefix(+85212345678) = false, want true")
	}
	if HasInternationalPrefix("85212345678") {
		t.Error("HasInternationalPrefix(85212345678) = true, want false")
	}
}
