package validator

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("ada@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "ada", "ada@example", "a b@example.com"} {
		if err := ValidateEmail(bad); err != ErrInvalidEmail {
			t.Fatalf("%q: expected invalid email, got %v", bad, err)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Fatalf("unexpected normalized email: %s", got)
	}
}

func TestValidateProfileFields(t *testing.T) {
	if err := ValidateNickname(""); err != ErrInvalidNickname {
		t.Fatalf("expected nickname error, got %v", err)
	}
	if err := ValidateName(strings.Repeat("가", 50)); err != nil {
		t.Fatalf("expected 50 runes to pass, got %v", err)
	}
	if err := ValidateName(strings.Repeat("a", 51)); err != ErrInvalidName {
		t.Fatalf("expected name error, got %v", err)
	}
	if err := ValidatePassword("short"); err != ErrInvalidPassword {
		t.Fatalf("expected password error, got %v", err)
	}
}

func TestValidatePhone(t *testing.T) {
	for _, ok := range []string{"010-1234-5678", "+82 10 1234 5678"} {
		if err := ValidatePhone(ok); err != nil {
			t.Fatalf("%q: unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"phone", "+", "012345678901234567890"} {
		if err := ValidatePhone(bad); err != ErrInvalidPhone {
			t.Fatalf("%q: expected phone error, got %v", bad, err)
		}
	}
}

func TestValidateAccountNumber(t *testing.T) {
	if err := ValidateAccountNumber("110-123-456789"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "-123", "abc", strings.Repeat("1", 21)} {
		if err := ValidateAccountNumber(bad); err != ErrInvalidAccountNumber {
			t.Fatalf("%q: expected account number error, got %v", bad, err)
		}
	}
}
