package auth

import (
	"errors"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash equals plaintext")
	}

	ok, err := CheckPassword(hash, "s3cret-pass")
	if err != nil {
		t.Fatalf("CheckPassword: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = CheckPassword(hash, "wrong-pass")
	if err != nil {
		t.Fatalf("mismatch must not be an error, got %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	_, err := CheckPassword("not-a-bcrypt-hash", "whatever")
	if !errors.Is(err, ErrCredentialFormat) {
		t.Fatalf("expected ErrCredentialFormat, got %v", err)
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("opaque-token")
	b := HashToken("opaque-token")
	if a != b {
		t.Fatal("hash must be deterministic for lookup by hash")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashToken("other-token") {
		t.Fatal("distinct tokens collided")
	}
}
