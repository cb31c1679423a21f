package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/KaramelBytes/docbox-cli/internal/utils"
	"gopkg.in/yaml.v3"
)

// Storage is the durable side of a session. Load returns "" when nothing is stored.
type Storage interface {
	Load() (string, error)
	Save(token string) error
	Remove() error
}

// persisted is the on-disk layout; "token" is the fixed key.
type persisted struct {
	Token string `yaml:"token"`
}

// FileStorage keeps the token in a yaml file readable only by the owner.
type FileStorage struct {
	Path string
}

func NewFileStorage(path string) *FileStorage { return &FileStorage{Path: path} }

func (f *FileStorage) Load() (string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read session: %w", err)
	}
	var p persisted
	if err := yaml.Unmarshal(b, &p); err != nil {
		return "", fmt.Errorf("parse session: %w", err)
	}
	return p.Token, nil
}

func (f *FileStorage) Save(token string) error {
	b, err := yaml.Marshal(persisted{Token: token})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return utils.SafeWriteFile(f.Path, b, 0o600)
}

func (f *FileStorage) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// MemoryStorage keeps the token for the life of the process only.
type MemoryStorage struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStorage) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStorage) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Remove() error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
