// Package encryption provides the application-wide message cipher. The
// symmetric key is created on first use and kept in a KeyStore, optionally
// wrapped with a passphrase.
package encryption

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/chatkeeper/internal/common"
	"github.com/dmitrijs2005/chatkeeper/internal/cryptox"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
)

// KeyName is the key store entry holding the application key.
const KeyName = "app-encryption-key"

const (
	protectedPrefix = "argon2id"
	saltSize        = 16
)

// KeyStore persists small secrets. Get returns (nil, nil) for a missing key.
type KeyStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type Option func(*Service)

// WithPassphrase protects the stored key with a key derived from passphrase.
func WithPassphrase(passphrase []byte) Option {
	return func(s *Service) {
		s.passphrase = append([]byte(nil), passphrase...)
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

type Service struct {
	store      KeyStore
	passphrase []byte
	log        logging.Logger

	mu  sync.Mutex
	key []byte
}

func NewService(store KeyStore, opts ...Option) *Service {
	s := &Service{store: store, log: logging.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Encrypt returns base64(nonce||ciphertext) of plaintext.
func (s *Service) Encrypt(ctx context.Context, plaintext string) (string, error) {
	key, err := s.getKey(ctx)
	if err != nil {
		return "", err
	}
	return cryptox.EncryptString(plaintext, key)
}

// Decrypt reverses Encrypt. Wrong keys and corrupt input yield common.ErrDecrypt.
func (s *Service) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	key, err := s.getKey(ctx)
	if err != nil {
		return "", err
	}
	return cryptox.DecryptString(ciphertext, key)
}

// Close wipes the cached key and passphrase.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	common.WipeByteArray(s.key)
	common.WipeByteArray(s.passphrase)
	s.key = nil
}

// getKey loads the key once. Concurrent first callers share one
// initialisation.
func (s *Service) getKey(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	stored, err := s.store.Get(ctx, KeyName)
	if err != nil {
		return nil, fmt.Errorf("load encryption key: %w", err)
	}

	if stored == nil {
		key := cryptox.GenerateKey()
		if err := s.save(ctx, key); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "generated new encryption key", "protected", len(s.passphrase) > 0)
		s.key = key
		return key, nil
	}

	key, wasProtected, err := s.unwrap(string(stored))
	if err != nil {
		return nil, err
	}
	if !wasProtected && len(s.passphrase) > 0 {
		if err := s.save(ctx, key); err != nil {
			return nil, err
		}
		s.log.Info(ctx, "encryption key is now passphrase protected")
	}

	s.key = key
	return key, nil
}

func (s *Service) save(ctx context.Context, key []byte) error {
	value, err := s.wrap(key)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, KeyName, []byte(value)); err != nil {
		return fmt.Errorf("store encryption key: %w", err)
	}
	return nil
}

// wrap encodes key for storage: plain base64, or
// "argon2id:<salt>:<sealed key>" when a passphrase is set.
func (s *Service) wrap(key []byte) (string, error) {
	if len(s.passphrase) == 0 {
		return base64.StdEncoding.EncodeToString(key), nil
	}

	salt := common.GenerateRandByteArray(saltSize)
	kek := cryptox.DeriveMasterKey(s.passphrase, salt)
	defer common.WipeByteArray(kek)

	sealed, err := cryptox.Seal(key, kek)
	if err != nil {
		return "", fmt.Errorf("wrap encryption key: %w", err)
	}
	return strings.Join([]string{
		protectedPrefix,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(sealed),
	}, ":"), nil
}

func (s *Service) unwrap(value string) (key []byte, protected bool, err error) {
	if !strings.HasPrefix(value, protectedPrefix+":") {
		key, err := base64.StdEncoding.DecodeString(value)
		if err != nil || len(key) != cryptox.KeySize {
			return nil, false, common.ErrWrongKeyStore
		}
		return key, false, nil
	}

	if len(s.passphrase) == 0 {
		return nil, true, common.ErrKeyProtected
	}

	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return nil, true, common.ErrWrongKeyStore
	}
	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, true, common.ErrWrongKeyStore
	}
	sealed, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, true, common.ErrWrongKeyStore
	}

	kek := cryptox.DeriveMasterKey(s.passphrase, salt)
	defer common.WipeByteArray(kek)

	key, err = cryptox.Open(sealed, kek)
	if err != nil {
		return nil, true, err
	}
	return key, true, nil
}
