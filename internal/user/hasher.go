package user

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

// PasswordHasher defines the hashing contract used by the service.
type PasswordHasher interface {
	// Hash returns an encoded digest embedding its salt and parameters.
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
	// NeedsRehash reports whether a digest should be recomputed with the
	// current parameters on the next successful login.
	NeedsRehash(hash string) bool
}

var errMalformedDigest = errors.New("malformed argon2id digest")

// Argon2Hasher produces PHC-formatted argon2id digests:
// $argon2id$v=19$m=<KiB>,t=<iterations>,p=<threads>$<salt>$<key>
type Argon2Hasher struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Hasher matches PHP's PASSWORD_ARGON2ID defaults.
func DefaultArgon2Hasher() Argon2Hasher {
	return Argon2Hasher{Memory: 64 * 1024, Time: 4, Threads: 1, SaltLen: 16, KeyLen: 32}
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// Hash never fails: crypto/rand aborts the process if the system random
// source breaks.
func (a Argon2Hasher) Hash(pw string) (string, error) {
	salt := make([]byte, a.SaltLen)
	_, _ = rand.Read(salt)
	key := argon2.IDKey([]byte(pw), salt, a.Time, a.Memory, a.Threads, a.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.Memory, a.Time, a.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (a Argon2Hasher) Verify(hash, pw string) bool {
	if isBcrypt(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
	}
	p, err := parseArgon2(hash)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(pw), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(got, p.key) == 1
}

func (a Argon2Hasher) NeedsRehash(hash string) bool {
	p, err := parseArgon2(hash)
	if err != nil {
		return true
	}
	return p.memory != a.Memory || p.time != a.Time || p.threads != a.Threads ||
		uint32(len(p.salt)) != a.SaltLen || uint32(len(p.key)) != a.KeyLen
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

func parseArgon2(hash string) (argon2Params, error) {
	var p argon2Params
	parts := strings.Split(hash, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, errMalformedDigest
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, errMalformedDigest
	}
	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threads); err != nil {
		return p, errMalformedDigest
	}
	if threads == 0 || threads > 255 || p.time == 0 {
		return p, errMalformedDigest
	}
	p.threads = uint8(threads)
	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, errMalformedDigest
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return p, errMalformedDigest
	}
	return p, nil
}
