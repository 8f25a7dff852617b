// Package credentials keeps the API tokens sealed at rest in the settings
// store.
package credentials

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nuanxinpro/wallpaper-studio/internal/cryptox"
	"github.com/nuanxinpro/wallpaper-studio/internal/github"
	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/settings"
)

const settingsKey = "credentials.sealed"

var (
	ErrNotConfigured = errors.New("no credentials saved yet")
	// ErrWrongPassphrase mirrors the cryptox sentinel for callers that do
	// not import cryptox directly.
	ErrWrongPassphrase = cryptox.ErrWrongPassphrase
)

// Credentials are every secret the studio needs.
type Credentials struct {
	GitHubToken string `json:"githubToken"`
	AIAccountID string `json:"aiAccountId,omitempty"`
	AIToken     string `json:"aiToken,omitempty"`
	AIWorkerURL string `json:"aiWorkerUrl,omitempty"`
}

type sealedBlob struct {
	Salt     []byte `json:"salt"`
	Nonce    []byte `json:"nonce"`
	Cipher   []byte `json:"cipher"`
	Verifier []byte `json:"verifier"`
}

// Store seals credentials with a passphrase-derived key before persisting
// them.
type Store struct {
	settings settings.Repository
}

// NewStore returns a Store over the given settings repository.
func NewStore(repo settings.Repository) *Store {
	return &Store{settings: repo}
}

// Save seals creds under the passphrase and persists the blob, replacing
// any previous one.
func (s *Store) Save(ctx context.Context, creds *Credentials, passphrase []byte) error {
	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return err
	}
	key := cryptox.DeriveKey(passphrase, salt)

	cipher, nonce, err := cryptox.Seal(creds, key)
	if err != nil {
		return fmt.Errorf("failed to seal credentials: %w", err)
	}

	blob, err := json.Marshal(sealedBlob{
		Salt:     salt,
		Nonce:    nonce,
		Cipher:   cipher,
		Verifier: cryptox.MakeVerifier(key),
	})
	if err != nil {
		return err
	}

	return s.settings.Set(ctx, settingsKey, base64.StdEncoding.EncodeToString(blob))
}

// Load unseals the persisted credentials. A missing blob yields
// ErrNotConfigured; a bad passphrase yields ErrWrongPassphrase.
func (s *Store) Load(ctx context.Context, passphrase []byte) (*Credentials, error) {
	raw, ok, err := s.settings.Get(ctx, settingsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotConfigured
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt credential blob: %w", err)
	}
	var blob sealedBlob
	if err := json.Unmarshal(decoded, &blob); err != nil {
		return nil, fmt.Errorf("corrupt credential blob: %w", err)
	}

	key := cryptox.DeriveKey(passphrase, blob.Salt)
	if !bytes.Equal(cryptox.MakeVerifier(key), blob.Verifier) {
		return nil, ErrWrongPassphrase
	}

	var creds Credentials
	if err := cryptox.Open(blob.Cipher, blob.Nonce, key, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Clear removes the persisted blob.
func (s *Store) Clear(ctx context.Context) error {
	return s.settings.Delete(ctx, settingsKey)
}

// Configured reports whether a credential blob exists.
func (s *Store) Configured(ctx context.Context) (bool, error) {
	_, ok, err := s.settings.Get(ctx, settingsKey)
	return ok, err
}

// TokenSource adapts unsealed credentials to the transport's token
// interface.
func (c *Credentials) TokenSource() github.TokenSource {
	return github.StaticToken(c.GitHubToken)
}
