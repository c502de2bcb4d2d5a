// Package textcrypt encrypts free text (extracted book content) at rest with
// AES-256-GCM. Payloads are stored as "salt:iv:tag:ciphertext" in hex, which
// keeps databases written by earlier releases readable.
package textcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	ivLength   = 16
	saltLength = 64
	tagLength  = 16
	iterations = 100000
	keyLength  = 32
)

// DecryptionFailed replaces content that looks encrypted but can't be opened.
const DecryptionFailed = "[Error: Decryption Failed]"

type Cipher struct {
	secret []byte

	mu   sync.Mutex
	keys map[string][]byte
}

func New(secret string) *Cipher {
	return &Cipher{
		secret: []byte(secret),
		keys:   map[string][]byte{},
	}
}

// key derives the AES key for salt. Derivation is slow on purpose, so keys
// are kept per salt for the lifetime of the Cipher.
func (c *Cipher) key(salt []byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if k, ok := c.keys[string(salt)]; ok {
		return k
	}
	k := pbkdf2.Key(c.secret, salt, iterations, keyLength, sha512.New)
	c.keys[string(salt)] = k
	return k
}

func (c *Cipher) gcm(salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key(salt))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return gcm, nil
}

// Encrypt returns the encoded payload for text. Empty text stays empty.
func (c *Cipher) Encrypt(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	salt := make([]byte, saltLength)
	iv := make([]byte, ivLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.WithStack(err)
	}
	if _, err := rand.Read(iv); err != nil {
		return "", errors.WithStack(err)
	}

	gcm, err := c.gcm(salt)
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, iv, []byte(text), nil)
	ct, tag := sealed[:len(sealed)-tagLength], sealed[len(sealed)-tagLength:]

	return strings.Join([]string{
		hex.EncodeToString(salt),
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ct),
	}, ":"), nil
}

// Decrypt reverses Encrypt. Input that isn't in the payload format is
// returned untouched; a payload that fails to open yields DecryptionFailed.
func (c *Cipher) Decrypt(payload string) string {
	parts := strings.Split(payload, ":")
	if len(parts) != 4 {
		return payload
	}

	text, err := c.open(parts)
	if err != nil {
		return DecryptionFailed
	}
	return text
}

func (c *Cipher) open(parts []string) (string, error) {
	var raw [4][]byte
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil {
			return "", errors.WithStack(err)
		}
		raw[i] = b
	}
	salt, iv, tag, ct := raw[0], raw[1], raw[2], raw[3]
	if len(iv) != ivLength || len(tag) != tagLength {
		return "", errors.New("malformed payload")
	}

	gcm, err := c.gcm(salt)
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(plain), nil
}

// EncryptPtr and DecryptPtr apply the cipher to nullable columns.
func (c *Cipher) EncryptPtr(s *string) (*string, error) {
	if c == nil || s == nil {
		return s, nil
	}
	enc, err := c.Encrypt(*s)
	if err != nil {
		return nil, err
	}
	return &enc, nil
}

func (c *Cipher) DecryptPtr(s *string) *string {
	if c == nil || s == nil {
		return s
	}
	dec := c.Decrypt(*s)
	return &dec
}
