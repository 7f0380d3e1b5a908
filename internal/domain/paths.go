package domain

import (
	"os"
	"path/filepath"
)

// Application directory name under the XDG base directories.
const appDirName = "clubsync"

// ConfigFileName is the configuration file name.
const ConfigFileName = "config.toml"

// SnapshotFileName is the snapshot document name.
const SnapshotFileName = "snapshot.json"

// LogFileName is the log file name.
const LogFileName = "clubsync.log"

// ConfigDir returns the configuration directory, honoring XDG_CONFIG_HOME.
func ConfigDir() string {
	return baseDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the data directory (snapshot, logs), honoring XDG_DATA_HOME.
func DataDir() string {
	return baseDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ConfigPath returns the configuration file path under dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

// SnapshotPath returns the snapshot file path under dir.
func SnapshotPath(dir string) string {
	return filepath.Join(dir, SnapshotFileName)
}

// LogPath returns the log file path under dir.
func LogPath(dir string) string {
	return filepath.Join(dir, LogFileName)
}

func baseDir(env, fallback string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return appDirName
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, appDirName)
}
