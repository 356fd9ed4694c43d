// Package paths resolves the configuration, data and backup directory
// locations used by the crediario CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName is the directory name used under platform config and data roots.
const appName = "crediario"

// BackupDirName is the backup directory created inside the data directory
// when no override is given.
const BackupDirName = "backups"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "CREDIARIO_CONFIG_DIR"
	EnvDataDir   = "CREDIARIO_DATA_DIR"
	EnvBackupDir = "CREDIARIO_BACKUP_DIR"
)

// baseDir is one XDG base directory: its variable and the path under $HOME
// used when the variable is unset.
type baseDir struct {
	env  string
	home []string
}

var (
	configBase = baseDir{env: "XDG_CONFIG_HOME", home: []string{".config"}}
	dataBase   = baseDir{env: "XDG_DATA_HOME", home: []string{".local", "share"}}
)

// lookup holds the OS queries, swapped out in tests.
var lookup = struct {
	home       func() (string, error)
	userConfig func() (string, error)
}{
	home:       os.UserHomeDir,
	userConfig: os.UserConfigDir,
}

// root returns the platform directory that holds the app directory. Outside
// Linux both bases share os.UserConfigDir.
func (b baseDir) root(goos string) (string, error) {
	if goos != "linux" {
		return lookup.userConfig()
	}
	if dir := os.Getenv(b.env); dir != "" {
		return dir, nil
	}
	home, err := lookup.home()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, b.home...)...), nil
}

func (b baseDir) appDir(goos string) (string, error) {
	root, err := b.root(goos)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, appName), nil
}

// DefaultConfigDir returns the platform default configuration directory:
// $XDG_CONFIG_HOME/crediario or ~/.config/crediario on Linux, and the
// crediario directory under os.UserConfigDir elsewhere.
func DefaultConfigDir() (string, error) { return configBase.appDir(runtime.GOOS) }

// DefaultDataDir returns the platform default data directory:
// $XDG_DATA_HOME/crediario or ~/.local/share/crediario on Linux, and the
// same directory as DefaultConfigDir elsewhere.
func DefaultDataDir() (string, error) { return dataBase.appDir(runtime.GOOS) }

// firstSet returns the first non-empty candidate.
func firstSet(candidates ...string) (string, bool) {
	for _, c := range candidates {
		if c != "" {
			return c, true
		}
	}
	return "", false
}

// ResolveConfigDir picks flag, then $CREDIARIO_CONFIG_DIR, then
// DefaultConfigDir. Overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if dir, ok := firstSet(flag, os.Getenv(EnvConfigDir)); ok {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks flag, then the config file value, then
// $CREDIARIO_DATA_DIR, then DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir, ok := firstSet(flag, configValue, os.Getenv(EnvDataDir)); ok {
		return filepath.Abs(dir)
	}
	return DefaultDataDir()
}

// ResolveBackupDir picks flag, then the config file value, then
// $CREDIARIO_BACKUP_DIR, then dataDir/backups.
func ResolveBackupDir(flag, configValue, dataDir string) (string, error) {
	dir, ok := firstSet(flag, configValue, os.Getenv(EnvBackupDir))
	if !ok {
		dir = filepath.Join(dataDir, BackupDirName)
	}
	return filepath.Abs(dir)
}
