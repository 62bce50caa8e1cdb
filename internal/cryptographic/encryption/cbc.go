package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"zkmsg/internal/cryptographic/kdf"
	"zkmsg/internal/errs"
	"zkmsg/internal/model"
)

const (
	SaltSize = 16
	IVSize   = aes.BlockSize
	MACSize  = sha256.Size
)

// Encrypt seals message under a key stretched from secret. This is a
// shared-secret scheme: Decrypt needs the very same secret.
func Encrypt(message, secret string) (*model.EncryptedPayload, error) {
	if secret == "" {
		return nil, errs.Validation("encryption secret is empty")
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("rand.Read salt: %w", err)
	}
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("rand.Read iv: %w", err)
	}

	encKey, macKey, err := payloadKeys(secret, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	plain := pkcs7Pad([]byte(message), aes.BlockSize)
	ct := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, plain)

	return &model.EncryptedPayload{
		Salt:       salt,
		IV:         iv,
		Ciphertext: ct,
		MAC:        payloadMAC(macKey, salt, iv, ct),
	}, nil
}

// Decrypt opens p with secret. A wrong secret or tampered payload yields
// ErrDecryption; a structurally broken payload yields ErrMalformedPayload.
func Decrypt(p *model.EncryptedPayload, secret string) (string, error) {
	if err := checkShape(p); err != nil {
		return "", err
	}
	if secret == "" {
		return "", errs.Validation("decryption secret is empty")
	}

	encKey, macKey, err := payloadKeys(secret, p.Salt)
	if err != nil {
		return "", err
	}
	if !hmac.Equal(p.MAC, payloadMAC(macKey, p.Salt, p.IV, p.Ciphertext)) {
		return "", fmt.Errorf("%w: authentication tag mismatch", errs.ErrDecryption)
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	plain := make([]byte, len(p.Ciphertext))
	cipher.NewCBCDecrypter(block, p.IV).CryptBlocks(plain, p.Ciphertext)

	out, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func checkShape(p *model.EncryptedPayload) error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: nil payload", errs.ErrMalformedPayload)
	case len(p.Salt) != SaltSize:
		return fmt.Errorf("%w: salt is %d bytes", errs.ErrMalformedPayload, len(p.Salt))
	case len(p.IV) != IVSize:
		return fmt.Errorf("%w: iv is %d bytes", errs.ErrMalformedPayload, len(p.IV))
	case len(p.MAC) != MACSize:
		return fmt.Errorf("%w: mac is %d bytes", errs.ErrMalformedPayload, len(p.MAC))
	case len(p.Ciphertext) == 0 || len(p.Ciphertext)%aes.BlockSize != 0:
		return fmt.Errorf("%w: ciphertext length %d", errs.ErrMalformedPayload, len(p.Ciphertext))
	}
	return nil
}

func payloadKeys(secret string, salt []byte) (encKey, macKey []byte, err error) {
	master := kdf.PBKDF2([]byte(secret), salt)
	return kdf.SplitKeys(master, salt)
}

func payloadMAC(key, salt, iv, ct []byte) []byte {
	m := hmac.New(sha256.New, key)
	m.Write(salt)
	m.Write(iv)
	m.Write(ct)
	return m.Sum(nil)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, fmt.Errorf("%w: bad padded length", errs.ErrDecryption)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, fmt.Errorf("%w: bad padding", errs.ErrDecryption)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: bad padding", errs.ErrDecryption)
		}
	}
	return b[:len(b)-n], nil
}
