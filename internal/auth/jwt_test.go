package auth

import (
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with a fixed, known secret so
// tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestGenerateStaff_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateStaff(time.Hour)
	if err != nil {
		t.Fatalf("GenerateStaff() error = %v", err)
	}
	// header.payload.signature
	if strings.Count(token, ".") != 2 {
		t.Errorf("GenerateStaff() token doesn't look like a JWT: %q", token)
	}
}

func TestValidateStaff_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateStaff(time.Hour)
	if err != nil {
		t.Fatalf("GenerateStaff() error = %v", err)
	}
	if err := ts.ValidateStaff(token); err != nil {
		t.Errorf("ValidateStaff() rejected a fresh token: %v", err)
	}
}

func TestValidateStaff_Expired(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateStaff(-time.Minute)
	if err != nil {
		t.Fatalf("GenerateStaff() error = %v", err)
	}
	if err := ts.ValidateStaff(token); err == nil {
		t.Error("ValidateStaff() accepted an expired token")
	}
}

func TestValidateStaff_WrongSecret(t *testing.T) {
	ts := newTestTokenService(t)
	other, _ := NewTokenService("a-completely-different-secret!!!")

	token, _ := ts.GenerateStaff(time.Hour)
	if err := other.ValidateStaff(token); err == nil {
		t.Error("ValidateStaff() accepted a token signed with a different secret")
	}
}

func TestValidateStaff_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	if err := ts.ValidateStaff("not.a.token"); err == nil {
		t.Error("ValidateStaff() accepted garbage input")
	}
}
