package auth

import (
	"database/sql"
	"sync"

	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/pkg/errors"
)

// Backend persists the session snapshot as string values under fixed keys.
type Backend interface {
	Load(key string) (string, bool, error)
	Save(key, value string) error
	Delete(key string) error
}

type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Load(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Save(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// DBBackend keeps the snapshot in the session table of the local database.
type DBBackend struct {
	db db.Db
}

func NewDBBackend(d db.Db) *DBBackend {
	return &DBBackend{db: d}
}

func (b *DBBackend) Load(key string) (string, bool, error) {
	var value string
	err := b.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "load session key %s", key)
	}
	return value, true, nil
}

func (b *DBBackend) Save(key, value string) error {
	_, err := b.db.Exec(`
INSERT INTO session (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, value)
	return errors.Wrapf(err, "save session key %s", key)
}

func (b *DBBackend) Delete(key string) error {
	_, err := b.db.Exec(`DELETE FROM session WHERE key = ?`, key)
	return errors.Wrapf(err, "delete session key %s", key)
}
