package application

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

var fastArgon2 = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestPasswordHasher_Argon2id(t *testing.T) {
	t.Parallel()

	hasher, err := NewPasswordHasher("")
	if err != nil {
		t.Fatalf("NewPasswordHasher failed: %v", err)
	}
	hasher = hasher.WithArgon2idParams(fastArgon2)

	hash, err := hasher.Hash("admin123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected hash encoding %q", hash)
	}
	if err := hasher.Verify(hash, "admin123"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}
	if err := hasher.Verify(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasswordHasher_Bcrypt(t *testing.T) {
	t.Parallel()

	hasher, err := NewPasswordHasher("BCRYPT")
	if err != nil {
		t.Fatalf("NewPasswordHasher failed: %v", err)
	}
	hasher = hasher.WithBcryptCost(bcrypt.MinCost)
	if hasher.Scheme() != PasswordSchemeBcrypt {
		t.Fatalf("expected bcrypt scheme, got %q", hasher.Scheme())
	}

	hash, err := hasher.Hash("user123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if err := VerifyPassword(hash, "user123"); err != nil {
		t.Fatalf("expected bcrypt hash to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestNewPasswordHasher_UnknownScheme(t *testing.T) {
	t.Parallel()

	if _, err := NewPasswordHasher("md5"); !errors.Is(err, ErrUnknownPasswordScheme) {
		t.Fatalf("expected ErrUnknownPasswordScheme, got %v", err)
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	for _, hash := range []string{"", "plaintext", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"} {
		if err := VerifyPassword(hash, "secret"); !errors.Is(err, ErrInvalidPasswordHash) {
			t.Fatalf("VerifyPassword(%q): expected ErrInvalidPasswordHash, got %v", hash, err)
		}
	}
}
