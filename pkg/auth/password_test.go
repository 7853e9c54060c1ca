package auth

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("pw123456")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "pw123456" {
		t.Fatalf("hash must not equal the plain password")
	}
	if !CheckPassword("pw123456", hash) {
		t.Fatalf("expected password check to pass")
	}
	if CheckPassword("wrong-password", hash) {
		t.Fatalf("expected password check to fail")
	}
}

func TestHashPasswordAcceptsLongInput(t *testing.T) {
	long := strings.Repeat("a", 200)
	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("hash long password: %v", err)
	}
	if !CheckPassword(long, hash) {
		t.Fatalf("expected long password check to pass")
	}
	// Only the first 72 bytes take part in the hash.
	if !CheckPassword(strings.Repeat("a", 72)+"different-tail", hash) {
		t.Fatalf("expected 72-byte prefix match to pass")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("pw123456"); err != nil {
		t.Fatalf("expected 8-character password to validate, got %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Fatalf("expected short password to be rejected")
	}
}
