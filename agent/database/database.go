package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gitclock/agent/agent/types"
	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

// SettingsRecord is the persisted agent state.
type SettingsRecord struct {
	AccessToken     string    `yaml:"accessToken,omitempty"`
	IntervalMinutes int       `yaml:"intervalMinutes,omitempty"`
	LoggedInAt      time.Time `yaml:"loggedInAt,omitempty"`
}

type DatabaseIfc interface {
	GetAccessToken() (string, bool)
	SetAccessToken(token string) error
	// GetIntervalMinutes returns the stored interval; values below the
	// floor are treated as not stored.
	GetIntervalMinutes() (int, bool)
	SetIntervalMinutes(minutes int) error
	GetSettings() SettingsRecord
}

type Database struct {
	settings SettingsRecord
	mu       sync.RWMutex
	dataDir  string
}

// NewDatabase opens the settings store in dataDir. A missing file starts
// an empty store; an unreadable one is an error.
func NewDatabase(dataDir string) (*Database, error) {
	db := &Database{dataDir: dataDir}
	if err := db.load(); err != nil {
		return nil, types.DatabaseError(types.AgentOperationDatabaseRead, err)
	}
	return db, nil
}

func (db *Database) GetAccessToken() (string, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.settings.AccessToken, db.settings.AccessToken != ""
}

func (db *Database) SetAccessToken(token string) error {
	if token == "" {
		return types.DatabaseError(types.AgentOperationDatabaseWrite, fmt.Errorf("access token cannot be empty"))
	}
	return db.update(func(s *SettingsRecord) {
		s.AccessToken = token
		s.LoggedInAt = time.Now().UTC()
	})
}

func (db *Database) GetIntervalMinutes() (int, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if types.ValidateIntervalMinutes(db.settings.IntervalMinutes) != nil {
		return 0, false
	}
	return db.settings.IntervalMinutes, true
}

func (db *Database) SetIntervalMinutes(minutes int) error {
	if err := types.ValidateIntervalMinutes(minutes); err != nil {
		return types.DatabaseError(types.AgentOperationDatabaseWrite, err)
	}
	return db.update(func(s *SettingsRecord) {
		s.IntervalMinutes = minutes
	})
}

func (db *Database) GetSettings() SettingsRecord {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.settings
}

// update applies fn and persists the result. The in-memory record only
// changes when the write succeeds.
func (db *Database) update(fn func(*SettingsRecord)) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	next := db.settings
	fn(&next)
	if err := db.save(next); err != nil {
		return types.DatabaseError(types.AgentOperationDatabaseWrite, err)
	}
	db.settings = next
	return nil
}

func (db *Database) save(settings SettingsRecord) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(db.dataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tempFile := filepath.Join(db.dataDir, settingsFileName+".tmp")
	finalFile := filepath.Join(db.dataDir, settingsFileName)

	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tempFile, finalFile); err != nil { // Atomic
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

func (db *Database) load() error {
	data, err := os.ReadFile(filepath.Join(db.dataDir, settingsFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, start fresh
		}
		return fmt.Errorf("failed to read settings: %w", err)
	}

	var settings SettingsRecord
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("failed to parse settings: %w", err)
	}
	db.settings = settings
	return nil
}
