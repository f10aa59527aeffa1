package utils // password hashing and access token helpers

import (
	"context"         // context bounds the wait for a hashing slot
	"crypto/rand"     // crypto/rand produces per-digest salts
	"crypto/subtle"   // subtle compares derived keys in constant time
	"encoding/base64" // base64 encodes salt and key inside the digest
	"errors"          // errors defines the malformed digest sentinel
	"fmt"             // fmt formats and scans the digest header
	"strings"         // strings splits the digest into its fields

	"golang.org/x/crypto/argon2"   // argon2id key derivation
	"golang.org/x/sync/semaphore" // semaphore caps concurrent hash work
)

// ErrMalformedDigest is returned by Verify when the stored digest cannot be
// parsed at all.  A well-formed digest for a different algorithm or version
// is not malformed; it simply never verifies.
var ErrMalformedDigest = errors.New("malformed password digest")

// Argon2Params configures the argon2id key derivation.
type Argon2Params struct {
	Time      uint32 // number of passes
	MemoryKiB uint32 // memory cost in KiB
	Threads   uint8  // parallelism
	SaltLen   uint32 // random salt length in bytes
	KeyLen    uint32 // derived key length in bytes
}

// DefaultArgon2Params are the parameters used when none are configured.
var DefaultArgon2Params = Argon2Params{Time: 3, MemoryKiB: 64 * 1024, Threads: 2, SaltLen: 16, KeyLen: 32}

// PasswordHasher derives and verifies argon2id digests in the PHC string
// format ($argon2id$v=19$m=..,t=..,p=..$salt$key).  Derivation is CPU and
// memory heavy, so at most `workers` computations run at the same time;
// additional callers wait for a slot or give up when their context ends.
type PasswordHasher struct {
	params Argon2Params
	slots  *semaphore.Weighted
}

// NewPasswordHasher returns a hasher with the given parameters and pool size.
// Zero salt or key lengths fall back to the defaults and workers < 1 means 1.
func NewPasswordHasher(p Argon2Params, workers int) *PasswordHasher {
	if p.SaltLen == 0 {
		p.SaltLen = DefaultArgon2Params.SaltLen
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultArgon2Params.KeyLen
	}
	if workers < 1 {
		workers = 1
	}
	return &PasswordHasher{params: p, slots: semaphore.NewWeighted(int64(workers))}
}

// Hash returns a salted argon2id digest of plain.  Two calls with the same
// input produce different digests.
func (h *PasswordHasher) Hash(ctx context.Context, plain string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)
	h.slots.Release(1)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.MemoryKiB, h.params.Time, h.params.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether plain matches digest.  The parameters embedded in
// the digest are used, so digests created with older settings keep working.
func (h *PasswordHasher) Verify(ctx context.Context, plain, digest string) (bool, error) {
	d, err := parseDigest(digest)
	if err != nil {
		return false, err
	}
	if d.variant != "argon2id" || d.version != argon2.Version {
		return false, nil
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(plain), d.salt, d.time, d.memory, d.threads, uint32(len(d.key)))
	h.slots.Release(1)

	return subtle.ConstantTimeCompare(key, d.key) == 1, nil
}

type digest struct {
	variant string
	version int
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// parseDigest splits a PHC string.  Layout: "", variant, v=N, params, salt, key.
func parseDigest(s string) (digest, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] == "" {
		return digest{}, ErrMalformedDigest
	}

	d := digest{variant: parts[1]}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &d.version); err != nil {
		return digest{}, ErrMalformedDigest
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.memory, &d.time, &d.threads); err != nil {
		return digest{}, ErrMalformedDigest
	}
	if d.memory == 0 || d.time == 0 || d.threads == 0 {
		return digest{}, ErrMalformedDigest
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) == 0 {
		return digest{}, ErrMalformedDigest
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.key) == 0 {
		return digest{}, ErrMalformedDigest
	}
	return d, nil
}
