// Package cryptox holds the server's cryptographic primitives: room password
// hashing and sealing of room E2EE keys at rest.
package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/roomkeeper/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

// Argon2id parameters used for new hashes. Stored hashes carry their own
// parameters, so changing these does not invalidate existing rooms.
const (
	argonTime    uint32 = 2
	argonMemory  uint32 = 19 * 1024
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

// Limits on the parameters a stored hash may ask for. Anything above them is
// treated as malformed.
const (
	maxArgonTime    uint32 = 4
	maxArgonMemory  uint32 = 64 * 1024
	maxArgonThreads uint8  = 4
)

// argonBudget caps the memory, in KiB, held by concurrent argon2 derivations.
const argonBudget = 256 * 1024

var argonMem = semaphore.NewWeighted(argonBudget)

const argonPrefix = "argon2id"

var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword returns an encoded argon2id digest of password with a fresh
// random salt:
//
//	argon2id$v=19$m=19456,t=2,p=1$<salt>$<key>
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(argonSaltLen)
	key := deriveArgon([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argonPrefix, argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

// VerifyPassword reports whether password matches hash. Besides argon2id
// digests it accepts bare hex SHA-256 digests written by older deployments.
// Comparison is constant-time; a malformed hash never matches.
func VerifyPassword(password, hash string) bool {
	if strings.HasPrefix(hash, argonPrefix+"$") {
		ok, err := verifyArgon(password, hash)
		return err == nil && ok
	}
	return verifyLegacySHA256(password, hash)
}

func verifyArgon(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 {
		return false, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrMalformedHash
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrMalformedHash
	}
	if time == 0 || time > maxArgonTime || memory == 0 || memory > maxArgonMemory || threads == 0 || threads > maxArgonThreads {
		return false, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(want) == 0 {
		return false, ErrMalformedHash
	}

	if len(want) > 64 {
		return false, ErrMalformedHash
	}

	got := deriveArgon([]byte(password), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// deriveArgon runs argon2id once memory KiB of argonBudget are free.
func deriveArgon(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte {
	_ = argonMem.Acquire(context.Background(), int64(memory))
	defer argonMem.Release(int64(memory))
	return argon2.IDKey(password, salt, time, memory, threads, keyLen)
}

func verifyLegacySHA256(password, hash string) bool {
	want, err := hex.DecodeString(hash)
	if err != nil || len(want) != sha256.Size {
		return false
	}
	got := sha256.Sum256([]byte(password))
	return subtle.ConstantTimeCompare(got[:], want) == 1
}

// Seal encrypts plaintext with AES-GCM under key (16, 24 or 32 bytes).
// A fresh random nonce is generated for every call and returned separately.
func Seal(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Open reverses Seal. It fails if key, nonce or ciphertext were tampered with.
func Open(ciphertext, nonce, key []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size %d", len(nonce))
	}
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
