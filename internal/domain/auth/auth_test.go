package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	claims := Claims{UserID: "u1", Email: "asha@example.com", IsAdmin: true, SessionID: "s1"}

	token, err := GenerateToken("secret", claims, time.Hour)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	parsed, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.UserID != "u1" || parsed.Email != "asha@example.com" || !parsed.IsAdmin || parsed.SessionID != "s1" {
		t.Fatalf("claims did not survive the round trip: %+v", parsed)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected parse to fail with the wrong secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1"}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expected parse to fail for an expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestHashTokenIsStableDigest(t *testing.T) {
	a := HashToken("tok-1")
	if a != HashToken("tok-1") {
		t.Fatal("digest must be deterministic")
	}
	if a == "tok-1" {
		t.Fatal("digest must not equal the token")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256 digest, got %d chars", len(a))
	}
	if a == HashToken("tok-2") {
		t.Fatal("distinct tokens must not collide")
	}
}
