// Package config loads sqlexpr settings from config files, dotenv files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem configuration is read from.
var AppFs = afero.NewOsFs()

const (
	fileName  = ".sqlexpr"
	envPrefix = "SQLEXPR"
)

// Config holds the application configuration.
type Config struct {
	Dialect         string `mapstructure:"dialect"`
	DatabaseURL     string `mapstructure:"database_url"`
	ModelsPath      string `mapstructure:"models"`
	Debug           bool   `mapstructure:"debug"`
	PluralizeTables bool   `mapstructure:"pluralize_tables"`
	CacheSize       int    `mapstructure:"cache_size"`
}

// Loader reads configuration. The zero value reads from AppFs, the current directory
// and the user's home directory.
type Loader struct {
	Fs   afero.Fs
	Dir  string
	Home string
	// File, when set, is read instead of searching for .sqlexpr.yaml.
	File string
}

// Load reads configuration with the default Loader.
func Load() (*Config, error) {
	return (&Loader{}).Load()
}

// Load resolves settings in precedence order: environment (SQLEXPR_*), .env.local,
// .env, config file, defaults. DATABASE_URL is honored when SQLEXPR_DATABASE_URL is unset.
func (l *Loader) Load() (*Config, error) {
	fs := l.Fs
	if fs == nil {
		fs = AppFs
	}
	dir := l.Dir
	if dir == "" {
		dir = "."
	}
	home := l.Home
	if home == "" {
		h, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		home = h
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yaml")
	if l.File != "" {
		v.SetConfigFile(l.File)
	} else {
		v.SetConfigName(fileName)
		v.AddConfigPath(dir)
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "sqlexpr"))
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("dialect", "postgres")
	v.SetDefault("database_url", "")
	v.SetDefault("models", "models.yaml")
	v.SetDefault("debug", false)
	v.SetDefault("pluralize_tables", false)
	v.SetDefault("cache_size", 128)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	env, err := dotenv(fs, dir)
	if err != nil {
		return nil, err
	}
	for key, value := range env {
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if name, ok := envKeys[key]; ok {
			v.Set(name, value)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		if url, ok := os.LookupEnv("DATABASE_URL"); ok {
			cfg.DatabaseURL = url
		} else {
			cfg.DatabaseURL = env["DATABASE_URL"]
		}
	}
	return cfg, nil
}

// dotenv reads .env then .env.local from dir; later files win.
func dotenv(fs afero.Fs, dir string) (map[string]string, error) {
	out := make(map[string]string)
	for _, name := range []string{".env", ".env.local"} {
		f, err := fs.Open(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		values, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for k, v := range values {
			out[k] = v
		}
	}
	return out, nil
}

var envKeys = map[string]string{
	envPrefix + "_DIALECT":          "dialect",
	envPrefix + "_DATABASE_URL":     "database_url",
	envPrefix + "_MODELS":           "models",
	envPrefix + "_DEBUG":            "debug",
	envPrefix + "_PLURALIZE_TABLES": "pluralize_tables",
	envPrefix + "_CACHE_SIZE":       "cache_size",
}

// Save writes cfg as YAML to path.
func Save(fs afero.Fs, path string, cfg *Config) error {
	if fs == nil {
		fs = AppFs
	}
	v := viper.New()
	v.SetFs(fs)
	v.Set("dialect", cfg.Dialect)
	v.Set("database_url", cfg.DatabaseURL)
	v.Set("models", cfg.ModelsPath)
	v.Set("debug", cfg.Debug)
	v.Set("pluralize_tables", cfg.PluralizeTables)
	v.Set("cache_size", cfg.CacheSize)

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}
