// Config loading for the crediario CLI.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/crediario/internal/logger"
	"github.com/mesh-intelligence/crediario/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "CREDIARIO"

	cfgKeyDataDir           = "data_dir"
	cfgKeyBackupDir         = "backup_dir"
	cfgKeyStrictBalance     = "strict_balance"
	cfgKeyUpcomingDays      = "upcoming_days"
	cfgKeyLogLevel          = "log_level"
	cfgKeyLogFormat         = "log_format"
	cfgKeyRemoteBucket      = "remote.bucket"
	cfgKeyRemoteDir         = "remote.dir"
	cfgKeyRemoteOwner       = "remote.owner"
	cfgKeyRemoteCredentials = "remote.credentials"
)

// fileConfig is the shape of config.yaml. It is used to write the default
// file; reads go through viper so env overrides apply.
type fileConfig struct {
	DataDir       string       `yaml:"data_dir"`
	BackupDir     string       `yaml:"backup_dir"`
	StrictBalance bool         `yaml:"strict_balance"`
	UpcomingDays  int          `yaml:"upcoming_days"`
	LogLevel      string       `yaml:"log_level"`
	LogFormat     string       `yaml:"log_format"`
	Remote        remoteConfig `yaml:"remote"`
}

type remoteConfig struct {
	Bucket      string `yaml:"bucket"`
	Dir         string `yaml:"dir"`
	Owner       string `yaml:"owner"`
	Credentials string `yaml:"credentials"`
}

// defaultFileConfig holds the values written on first run. Payments larger
// than the outstanding balance are refused unless strict_balance is false.
var defaultFileConfig = fileConfig{
	StrictBalance: true,
	UpcomingDays:  types.DefaultUpcomingDays,
	LogLevel:      "warn",
	LogFormat:     logger.FormatConsole,
}

const configHeader = `# crediario configuration
# Every key can be overridden with a CREDIARIO_ environment variable,
# for example CREDIARIO_STRICT_BALANCE=false or CREDIARIO_REMOTE_BUCKET=my-bucket.
`

// loadConfig reads config.yaml from configDir using Viper. It creates the
// config directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyStrictBalance, defaultFileConfig.StrictBalance)
	v.SetDefault(cfgKeyUpcomingDays, defaultFileConfig.UpcomingDays)
	v.SetDefault(cfgKeyLogLevel, defaultFileConfig.LogLevel)
	v.SetDefault(cfgKeyLogFormat, defaultFileConfig.LogFormat)
	for _, key := range []string{cfgKeyDataDir, cfgKeyBackupDir, cfgKeyRemoteBucket, cfgKeyRemoteDir, cfgKeyRemoteOwner, cfgKeyRemoteCredentials} {
		v.SetDefault(key, "")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("%w: read config: %v", types.ErrInvalidArgument, err)
	}
	return v, nil
}

// ledgerConfig builds the ledger configuration from settings and dataDir.
func ledgerConfig(v *viper.Viper, dataDir string) (types.Config, error) {
	cfg := types.Config{
		Backend:       types.BackendSQLite,
		DataDir:       dataDir,
		StrictBalance: v.GetBool(cfgKeyStrictBalance),
		UpcomingDays:  v.GetInt(cfgKeyUpcomingDays),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("%w: %s: %w", types.ErrInvalidArgument, configFileExt, err)
	}
	return cfg, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile writes config.yaml with defaultFileConfig if the
// file does not exist.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(defaultFileConfig); err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
