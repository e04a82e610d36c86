// Package cryptox seals small records with a key derived from a passphrase.
//
// Keys come from Argon2id; records are encrypted with AES-256-GCM. A sealed
// record is a JSON envelope carrying the salt and nonce next to the
// ciphertext, so it can be opened with the passphrase alone.
package cryptox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	// Algorithm tags sealed envelopes.
	Algorithm = "argon2id+aes256gcm"

	saltSize = 16
	keySize  = 32
)

var (
	ErrWrongKey     = errors.New("wrong passphrase or damaged record")
	ErrNotSealed    = errors.New("record is not sealed")
	ErrNoPassphrase = errors.New("empty passphrase")
)

// KDFParams are the Argon2id cost parameters.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDF matches the interactive profile: one pass over 64 MiB.
var DefaultKDF = KDFParams{Time: 1, Memory: 64 * 1024, Threads: 4}

// DeriveKey stretches passphrase into a 32-byte AES key.
func DeriveKey(passphrase, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(passphrase, salt, p.Time, p.Memory, p.Threads, keySize)
}

// Seal encrypts plaintext with AES-GCM under key. A new random nonce is
// generated for every call.
func Seal(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Open reverses Seal. Authentication failures return ErrWrongKey.
func Open(ciphertext, nonce, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: bad nonce length %d", ErrWrongKey, len(nonce))
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrWrongKey
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Wipe zeroes b.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

type envelope struct {
	Alg   string `json:"alg"`
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// IsSealed reports whether data looks like an envelope produced by a Sealer.
func IsSealed(data []byte) bool {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return false
	}
	var e envelope
	return json.Unmarshal(data, &e) == nil && e.Alg == Algorithm
}

// Sealer seals records under one passphrase. The derived key is cached per
// salt, so repeated saves pay for Argon2 once.
type Sealer struct {
	passphrase []byte
	params     KDFParams

	mu   sync.Mutex
	salt []byte
	key  []byte
}

func NewSealer(passphrase string, p KDFParams) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrNoPassphrase
	}
	return &Sealer{passphrase: []byte(passphrase), params: p}, nil
}

// keyFor returns the key for salt, deriving it on a cache miss. A nil salt
// means "the current salt", generating one if none is cached yet.
func (s *Sealer) keyFor(salt []byte) ([]byte, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if salt == nil {
		if s.salt != nil {
			return s.salt, s.key, nil
		}
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, err
		}
	}
	if s.salt != nil && bytes.Equal(salt, s.salt) {
		return s.salt, s.key, nil
	}

	Wipe(s.key)
	s.salt = bytes.Clone(salt)
	s.key = DeriveKey(s.passphrase, s.salt, s.params)
	return s.salt, s.key, nil
}

// Seal encrypts plaintext into a JSON envelope.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	salt, key, err := s.keyFor(nil)
	if err != nil {
		return nil, err
	}
	ct, nonce, err := Seal(plaintext, key)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Alg: Algorithm, Salt: salt, Nonce: nonce, Data: ct})
}

// Open decrypts an envelope produced by Seal.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil || e.Alg != Algorithm {
		return nil, ErrNotSealed
	}
	if len(e.Salt) == 0 {
		return nil, fmt.Errorf("%w: missing salt", ErrWrongKey)
	}
	_, key, err := s.keyFor(e.Salt)
	if err != nil {
		return nil, err
	}
	return Open(e.Data, e.Nonce, key)
}
