// Package datastore provides the namespaced key-value store plugins persist
// their settings in, with optional encryption for secrets such as API keys.
package datastore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const encryptedPrefix = "enc:"

// ErrDecrypt indicates a stored ciphertext could not be decrypted, usually
// because the datastore secret changed.
var ErrDecrypt = errors.New("unable to decrypt stored value")

// Store is a namespaced key-value store.
type Store interface {
	// Get unmarshals the stored value into out, reporting whether the key existed.
	Get(ctx context.Context, namespace, key string, out any) (bool, error)
	Set(ctx context.Context, namespace, key string, value any, opts ...Option) error
	Delete(ctx context.Context, namespace, key string) error
}

type setOptions struct {
	encrypted bool
}

// Option customises a Set call.
type Option func(*setOptions)

// WithEncryption stores the value AES-GCM encrypted at rest.
func WithEncryption() Option {
	return func(o *setOptions) { o.encrypted = true }
}

// New constructs a redis-backed store. The secret derives the encryption key.
func New(client *redis.Client, secret string, logger zerolog.Logger) Store {
	key := sha256.Sum256([]byte(secret))
	return &redisStore{
		client: client,
		key:    key[:],
		logger: logger.With().Str("component", "datastore").Logger(),
	}
}

type redisStore struct {
	client *redis.Client
	key    []byte
	logger zerolog.Logger
}

func storageKey(namespace, key string) string {
	return fmt.Sprintf("datastore:%s:%s", namespace, key)
}

func (s *redisStore) Get(ctx context.Context, namespace, key string, out any) (bool, error) {
	raw, err := s.client.Get(ctx, storageKey(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("datastore get %s/%s: %w", namespace, key, err)
	}

	if strings.HasPrefix(raw, encryptedPrefix) {
		plaintext, err := s.decrypt(strings.TrimPrefix(raw, encryptedPrefix))
		if err != nil {
			return false, err
		}
		raw = plaintext
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("datastore decode %s/%s: %w", namespace, key, err)
	}

	return true, nil
}

func (s *redisStore) Set(ctx context.Context, namespace, key string, value any, opts ...Option) error {
	options := setOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("datastore encode %s/%s: %w", namespace, key, err)
	}

	payload := string(encoded)
	if options.encrypted {
		ciphertext, err := s.encrypt(payload)
		if err != nil {
			return err
		}
		payload = encryptedPrefix + ciphertext
	}

	if err := s.client.Set(ctx, storageKey(namespace, key), payload, 0).Err(); err != nil {
		return fmt.Errorf("datastore set %s/%s: %w", namespace, key, err)
	}

	return nil
}

func (s *redisStore) Delete(ctx context.Context, namespace, key string) error {
	if err := s.client.Del(ctx, storageKey(namespace, key)).Err(); err != nil {
		return fmt.Errorf("datastore delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *redisStore) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *redisStore) decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecrypt
	}

	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(sealed) < gcm.NonceSize() {
		return "", ErrDecrypt
	}

	plaintext, err := gcm.Open(nil, sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():], nil)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}
