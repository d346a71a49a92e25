package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/specialistvlad/leafletmm/internal/app"
)

// settings resolves configuration from flags, LEAFLETMM_* environment
// variables and an optional config file, in that order of precedence.
type settings struct {
	v       *viper.Viper
	cfgFile string
}

func newSettings() *settings {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return &settings{v: v}
}

func (s *settings) bind(key string, flag *pflag.Flag) {
	if err := s.v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind flag for '%s': %v", key, err))
	}
}

// load reads the config file, if one was given.
func (s *settings) load() error {
	if s.cfgFile == "" {
		return nil
	}
	s.v.SetConfigFile(s.cfgFile)
	if err := s.v.ReadInConfig(); err != nil {
		return usageError(fmt.Sprintf("failed to read config file %s: %v", s.cfgFile, err))
	}
	slog.Debug("Config file loaded.", "file", s.v.ConfigFileUsed())
	return nil
}

// appConfig validates the resolved settings and builds the app configuration.
func (s *settings) appConfig() (*app.Config, error) {
	logFormat := strings.ToLower(s.v.GetString("log_format"))
	if logFormat != "text" && logFormat != "json" {
		return nil, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(s.v.GetString("log_level"))
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}
	slog.Debug("CLI parameter validation complete.")

	cfg, err := app.NewConfig(app.Config{
		DefinitionsPath: s.v.GetString("definitions"),
		RootDir:         s.v.GetString("root_dir"),
		Listen:          s.v.GetString("listen"),
		Watch:           s.v.GetBool("watch"),
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, usageError(err.Error())
	}

	slog.Debug("CLI parser finished successfully.", "definitions", cfg.DefinitionsPath, "root_dir", cfg.RootDir)
	return cfg, nil
}
