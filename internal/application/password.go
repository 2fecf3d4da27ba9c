package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPasswordHash         = errors.New("invalid password hash format")
	ErrIncompatiblePasswordVersion = errors.New("incompatible password hash version")
	ErrUnknownPasswordScheme       = errors.New("unknown password scheme")
)

// Supported password hashing schemes.
const (
	PasswordSchemeArgon2id = "argon2id"
	PasswordSchemeBcrypt   = "bcrypt"
)

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// PasswordHasher creates hashes with one scheme and verifies hashes of every
// supported scheme, so the scheme can change without invalidating accounts.
type PasswordHasher struct {
	scheme     string
	argon2     Argon2idParams
	bcryptCost int
}

// NewPasswordHasher returns a hasher for scheme. An empty scheme selects
// argon2id.
func NewPasswordHasher(scheme string) (*PasswordHasher, error) {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	switch scheme {
	case "":
		scheme = PasswordSchemeArgon2id
	case PasswordSchemeArgon2id, PasswordSchemeBcrypt:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPasswordScheme, scheme)
	}
	return &PasswordHasher{scheme: scheme, argon2: DefaultArgon2idParams, bcryptCost: bcrypt.DefaultCost}, nil
}

// WithArgon2idParams returns a copy of h using params for new argon2id hashes.
func (h *PasswordHasher) WithArgon2idParams(params Argon2idParams) *PasswordHasher {
	clone := *h
	clone.argon2 = params
	return &clone
}

// WithBcryptCost returns a copy of h using cost for new bcrypt hashes.
func (h *PasswordHasher) WithBcryptCost(cost int) *PasswordHasher {
	clone := *h
	clone.bcryptCost = cost
	return &clone
}

// Scheme returns the scheme used for new hashes.
func (h *PasswordHasher) Scheme() string {
	return h.scheme
}

// Hash returns an encoded hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.scheme == PasswordSchemeBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", err
		}
		return string(hashed), nil
	}
	return CreatePasswordHash(password, h.argon2)
}

// Verify checks password against an encoded hash of any supported scheme.
func (h *PasswordHasher) Verify(hashedPassword, password string) error {
	return VerifyPassword(hashedPassword, password)
}

func CreatePasswordHash(password string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// $argon2id$v=19$m=...,t=...,p=...$salt$hash
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash), nil
}

// VerifyPassword checks password against an argon2id or bcrypt hash and
// returns ErrInvalidCredentials on mismatch.
func VerifyPassword(hashedPassword, password string) error {
	if isBcryptHash(hashedPassword) {
		err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}

	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 6 {
		return ErrInvalidPasswordHash
	}

	if parts[1] != "argon2id" {
		return ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return err
	}
	if version != argon2.Version {
		return ErrIncompatiblePasswordVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return err
	}
	params.SaltLength = uint32(len(salt))

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return err
	}
	params.KeyLength = uint32(len(decodedHash))

	comparisonHash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return nil
	}

	return ErrInvalidCredentials
}

func isBcryptHash(hash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(hash, prefix) {
			return true
		}
	}
	return false
}
