package cryptox

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"filippo.io/age"
	"github.com/dmitrijs2005/ticketvault/internal/common"
)

// encryptAge seals plaintext with an age scrypt recipient. age frames its own
// nonce and MAC, so IV and AuthTag stay empty.
func (e *Engine) encryptAge(plaintext, password string) (*Sealed, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, common.Validation("password is required")
	}
	recipient.SetWorkFactor(e.cfg.AgeWorkFactor)

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("age encrypt: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return nil, fmt.Errorf("age write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("age finalize: %w", err)
	}

	return &Sealed{
		Ciphertext: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Algorithm:  AlgAgeScrypt,
	}, nil
}

func (e *Engine) decryptAge(ciphertext, password string) (string, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return "", common.Authentication("password is required")
	}
	if e.cfg.AgeWorkFactor > 22 {
		identity.SetMaxWorkFactor(e.cfg.AgeWorkFactor)
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", common.Authentication("malformed ciphertext")
	}

	r, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return "", common.Authentication("message authentication failed")
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return "", common.Authentication("message authentication failed")
	}
	return string(plaintext), nil
}
