package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
)

var errNoCipher = errors.New("encryption is not configured")

// EncryptMessage replaces the text of id with ciphertext. Encrypted and
// unknown records are left alone. On failure the record is unchanged.
func (s *Store) EncryptMessage(ctx context.Context, id string) error {
	return s.transformText(ctx, id, true)
}

// DecryptMessage restores the plaintext of id. Plain and unknown records
// are left alone. On failure the record is unchanged.
func (s *Store) DecryptMessage(ctx context.Context, id string) error {
	return s.transformText(ctx, id, false)
}

func (s *Store) transformText(ctx context.Context, id string, encrypt bool) error {
	unlock := s.locks.lock(id)
	defer unlock()

	cur, ok := s.Get(id)
	if !ok || cur.Encrypted == encrypt {
		return nil
	}
	if s.cipher == nil {
		return errNoCipher
	}

	var (
		text string
		err  error
	)
	if encrypt {
		text, err = s.cipher.Encrypt(ctx, cur.Text)
	} else {
		text, err = s.cipher.Decrypt(ctx, cur.Text)
	}
	if err != nil {
		s.log.Warn(ctx, "message text transform failed", "id", id, "encrypt", encrypt, "error", err)
		return fmt.Errorf("message %s: %w", id, err)
	}

	_, changed := s.update(id, func(m *models.Message) bool {
		if m.Encrypted == encrypt {
			return false
		}
		m.Text = text
		m.Encrypted = encrypt
		return true
	})
	if changed {
		s.committed(ctx, Change{Op: OpUpdate, ID: id}, false)
	}
	return nil
}
