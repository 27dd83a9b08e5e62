package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/rewind/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// Manager manages reading and writing credentials.toml in the .rewind/ directory.
type Manager struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .rewind/ directory; otherwise the standard dotdir resolution applies.
func NewManager(override string) (*Manager, error) {
	mgr := &Manager{}
	mgr.ddm = dotdir.NewManager()

	target, err := mgr.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	mgr.targetPath = filepath.Join(target, credentialsFile)

	return mgr, nil
}

// Load reads credentials.toml from the target directory.
// Returns an empty Credentials if the file does not exist.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{Version: currentVersion}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	return creds, nil
}

// Save writes credentials to credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetSecret stores the token signing secret.
func (m *Manager) SetSecret(secret string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Auth.Secret = secret

	return m.Save(creds)
}

// GetSecret returns the stored signing secret.
// Returns an empty string if none is stored.
func (m *Manager) GetSecret() (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}

	return creds.Auth.Secret, nil
}

// SetToken stores a minted API token.
func (m *Manager) SetToken(token string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Auth.Token = token

	return m.Save(creds)
}

// GetToken returns the stored API token.
// Returns an empty string if none is stored.
func (m *Manager) GetToken() (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}

	return creds.Auth.Token, nil
}

// ClearAuth removes the stored secret and token.
func (m *Manager) ClearAuth() error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Auth = AuthCredential{}

	return m.Save(creds)
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}
