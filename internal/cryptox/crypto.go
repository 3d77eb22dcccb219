// Package cryptox implements the password-based authenticated encryption used
// for ticket payloads.
//
// Each Encrypt call draws a fresh salt and nonce. The key is derived from the
// password with argon2id, so the password itself is never used as key
// material. Ciphertext, IV (salt || nonce) and authentication tag are returned
// base64 encoded so they can be stored as text.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/dmitrijs2005/ticketvault/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Supported algorithm names.
const (
	AlgAES256GCM         = "aes-256-gcm"
	AlgChaCha20Poly1305  = "chacha20-poly1305"
	AlgXChaCha20Poly1305 = "xchacha20-poly1305"
	AlgAgeScrypt         = "age-scrypt"
)

const (
	saltSize = 16
	keySize  = 32
)

// randReader is the randomness source for salts and nonces.
var randReader io.Reader = rand.Reader

// KDFParams are the argon2id cost parameters.
type KDFParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKDFParams returns the argon2id parameters used in production.
func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}
}

// Config selects the algorithm and its cost parameters.
type Config struct {
	Algorithm     string
	KDF           KDFParams
	AgeWorkFactor int
}

// Sealed is the output of Encrypt and the input of Decrypt.
type Sealed struct {
	Ciphertext string
	IV         string
	AuthTag    string
	Algorithm  string
}

// Engine encrypts and decrypts ticket payloads. It is safe for concurrent use.
//
// An invalid Config is not rejected by NewEngine; it is reported as
// common.ErrConfiguration by the first Encrypt or Decrypt call.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Algorithm returns the configured algorithm name.
func (e *Engine) Algorithm() string {
	return e.cfg.Algorithm
}

// DeriveKey stretches password into a 32-byte key with argon2id.
//
// Parameters:
//   - password: the caller's secret, as bytes.
//   - salt: random per-ticket salt; the same salt must be used to decrypt.
//   - p: argon2id time, memory (KiB) and parallelism costs.
//
// Returns:
//   - a 32-byte key suitable for AES-256-GCM and both ChaCha20-Poly1305 variants.
//
// Example:
//
//	salt := make([]byte, 16)
//	if _, err := rand.Read(salt); err != nil {
//	    log.Fatal(err)
//	}
//	key := DeriveKey([]byte("hunter2"), salt, DefaultKDFParams())
func DeriveKey(password, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, keySize)
}

func (e *Engine) checkConfig(algorithm string) error {
	switch algorithm {
	case AlgAES256GCM, AlgChaCha20Poly1305, AlgXChaCha20Poly1305:
		p := e.cfg.KDF
		if p.Time == 0 || p.MemoryKiB == 0 || p.Threads == 0 {
			return common.New(common.CodeConfiguration, "argon2 parameters must be positive")
		}
		return nil
	case AlgAgeScrypt:
		if e.cfg.AgeWorkFactor <= 0 || e.cfg.AgeWorkFactor >= 30 {
			return common.New(common.CodeConfiguration, fmt.Sprintf("age work factor %d out of range", e.cfg.AgeWorkFactor))
		}
		return nil
	case "":
		return common.New(common.CodeConfiguration, "cipher algorithm is not configured")
	default:
		return common.New(common.CodeConfiguration, fmt.Sprintf("unsupported cipher algorithm %q", algorithm))
	}
}

func newAEAD(algorithm string, key []byte) (cipher.AEAD, error) {
	switch algorithm {
	case AlgAES256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case AlgChaCha20Poly1305:
		return chacha20poly1305.New(key)
	case AlgXChaCha20Poly1305:
		return chacha20poly1305.NewX(key)
	default:
		return nil, fmt.Errorf("no AEAD for %q", algorithm)
	}
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}

// Encrypt seals plaintext under a key derived from password.
//
// For the AEAD algorithms a fresh 16-byte salt and a fresh nonce are drawn on
// every call, so encrypting the same text twice never gives the same output.
// The salt and nonce are concatenated into Sealed.IV; the AEAD tag is split
// off into Sealed.AuthTag. With age-scrypt the whole age file is the
// ciphertext and IV and AuthTag are empty.
//
// Parameters:
//   - plaintext: the ticket text.
//   - password: the ticket password. Its byte copy is wiped once the key
//     has been derived.
//
// Returns:
//   - sealed: base64 ciphertext, IV and tag, plus the algorithm name.
//   - err: common.ErrConfiguration when the engine is misconfigured, or a
//     wrapped error when the random source fails.
//
// Example:
//
//	e := NewEngine(Config{Algorithm: AlgAES256GCM, KDF: DefaultKDFParams()})
//	sealed, err := e.Encrypt("the launch code", "hunter2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(sealed.Ciphertext, sealed.IV, sealed.AuthTag)
func (e *Engine) Encrypt(plaintext, password string) (*Sealed, error) {
	algorithm := e.cfg.Algorithm
	if err := e.checkConfig(algorithm); err != nil {
		return nil, err
	}
	if algorithm == AlgAgeScrypt {
		return e.encryptAge(plaintext, password)
	}

	salt, err := randomBytes(saltSize)
	if err != nil {
		return nil, err
	}

	pw := []byte(password)
	key := DeriveKey(pw, salt, e.cfg.KDF)
	defer common.WipeByteArray(key)
	common.WipeByteArray(pw)

	aead, err := newAEAD(algorithm, key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	nonce, err := randomBytes(aead.NonceSize())
	if err != nil {
		return nil, err
	}

	out := aead.Seal(nil, nonce, []byte(plaintext), nil)
	tagStart := len(out) - aead.Overhead()

	iv := make([]byte, 0, len(salt)+len(nonce))
	iv = append(iv, salt...)
	iv = append(iv, nonce...)

	return &Sealed{
		Ciphertext: base64.StdEncoding.EncodeToString(out[:tagStart]),
		IV:         base64.StdEncoding.EncodeToString(iv),
		AuthTag:    base64.StdEncoding.EncodeToString(out[tagStart:]),
		Algorithm:  algorithm,
	}, nil
}

// Decrypt opens s with password. A wrong password, a tampered ciphertext and
// malformed inputs all yield common.ErrAuthentication. When s.Algorithm is
// empty the configured algorithm is assumed.
//
// Parameters:
//   - s: the value returned by Encrypt, usually read back from storage.
//   - password: the password the ticket was sealed with.
//
// Returns:
//   - plaintext: the original text.
//   - err: common.ErrAuthentication on any integrity failure, or
//     common.ErrConfiguration when s names an unsupported algorithm.
//
// Example:
//
//	plain, err := e.Decrypt(*sealed, "hunter2")
//	if errors.Is(err, common.ErrAuthentication) {
//	    // wrong password or tampered data
//	}
func (e *Engine) Decrypt(s Sealed, password string) (string, error) {
	algorithm := s.Algorithm
	if algorithm == "" {
		algorithm = e.cfg.Algorithm
	}
	if err := e.checkConfig(algorithm); err != nil {
		return "", err
	}
	if algorithm == AlgAgeScrypt {
		return e.decryptAge(s.Ciphertext, password)
	}

	iv, err := base64.StdEncoding.DecodeString(s.IV)
	if err != nil || len(iv) <= saltSize {
		return "", common.Authentication("malformed iv")
	}
	tag, err := base64.StdEncoding.DecodeString(s.AuthTag)
	if err != nil {
		return "", common.Authentication("malformed auth tag")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(s.Ciphertext)
	if err != nil {
		return "", common.Authentication("malformed ciphertext")
	}

	pw := []byte(password)
	key := DeriveKey(pw, iv[:saltSize], e.cfg.KDF)
	defer common.WipeByteArray(key)
	common.WipeByteArray(pw)

	aead, err := newAEAD(algorithm, key)
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}

	nonce := iv[saltSize:]
	if len(nonce) != aead.NonceSize() || len(tag) != aead.Overhead() {
		return "", common.Authentication("malformed iv or auth tag")
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", common.Authentication("message authentication failed")
	}
	return string(plaintext), nil
}
