package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/hartley/lx/internal/models"
)

const configFile = ".lx/config.json"
const lockFile = ".lx/config.json.lock"

// AutoSyncEnv overrides the config's auto-sync flag: "1"/"true" forces
// it on, "0"/"false" forces it off.
const AutoSyncEnv = "LX_AUTO_SYNC"

// Load reads the config from disk
func Load(baseDir string) (*models.Config, error) {
	configPath := filepath.Join(baseDir, configFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.Config{}, nil
		}
		return nil, err
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to disk using atomic write (temp file + rename)
func Save(baseDir string, cfg *models.Config) error {
	configPath := filepath.Join(baseDir, configFile)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: temp file in same dir, then rename
	tmp, err := os.CreateTemp(dir, "config-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, configPath)
}

// withConfigLock serializes access to config.json using flock
func withConfigLock(baseDir string, fn func() error) error {
	lockPath := filepath.Join(baseDir, lockFile)

	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return err
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn()
}

// EnsureDeviceID returns the stable device id, generating and
// persisting one on first use.
func EnsureDeviceID(baseDir string) (string, error) {
	var id string
	err := withConfigLock(baseDir, func() error {
		cfg, err := Load(baseDir)
		if err != nil {
			return err
		}
		if cfg.DeviceID == "" {
			cfg.DeviceID = uuid.New().String()
			if err := Save(baseDir, cfg); err != nil {
				return err
			}
		}
		id = cfg.DeviceID
		return nil
	})
	return id, err
}

// SetDisplayName persists the local display name
func SetDisplayName(baseDir, name string) error {
	return withConfigLock(baseDir, func() error {
		cfg, err := Load(baseDir)
		if err != nil {
			return err
		}
		cfg.DisplayName = name
		return Save(baseDir, cfg)
	})
}

// SetServer persists the remote server URL and API key
func SetServer(baseDir, serverURL, apiKey string) error {
	return withConfigLock(baseDir, func() error {
		cfg, err := Load(baseDir)
		if err != nil {
			return err
		}
		cfg.ServerURL = serverURL
		cfg.APIKey = apiKey
		return Save(baseDir, cfg)
	})
}

// SetAutoSync persists the auto-sync flag
func SetAutoSync(baseDir string, enabled bool) error {
	return withConfigLock(baseDir, func() error {
		cfg, err := Load(baseDir)
		if err != nil {
			return err
		}
		cfg.AutoSync = &enabled
		return Save(baseDir, cfg)
	})
}

// AutoSyncEnabled reports whether recorded activity should trigger an
// immediate drain. The environment variable wins over config; the
// default is on.
func AutoSyncEnabled(baseDir string) bool {
	switch strings.ToLower(os.Getenv(AutoSyncEnv)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}

	cfg, err := Load(baseDir)
	if err != nil || cfg.AutoSync == nil {
		return true
	}
	return *cfg.AutoSync
}

// LoadPeers reads the configured peers file, falling back to nil when
// none is configured or the file is absent.
func LoadPeers(baseDir string) ([]models.PeerEntry, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return nil, err
	}
	if cfg.PeersFile == "" {
		return nil, nil
	}

	path := cfg.PeersFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var peers []models.PeerEntry
	if err := json.Unmarshal(data, &peers); err != nil {
		return nil, err
	}
	return peers, nil
}
