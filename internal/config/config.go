// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/BurntSushi/toml"
)

const (
	// EnvPrefix prefixes every environment override, e.g. GREENNEST_WEBSERVER_PORT.
	EnvPrefix = "GREENNEST"

	// JSONConfigEnv holds a JSON document merged over the file config.
	JSONConfigEnv = "GREENNEST_CONFIG_JSON"

	defaultShutDownTime   = 5
	defaultExpiryTime     = 24 * time.Hour
	defaultResolveTimeout = 2 * time.Second
	defaultCacheSize      = 10000
	defaultTokenTTL       = time.Hour
	defaultGoogleIssuer   = "https://accounts.google.com"
	defaultSQLitePath     = "greennest.db"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	if configJSON := os.Getenv(JSONConfigEnv); configJSON != "" {
		c, err = decodeAndMergeConfig(c, configJSON)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read json config override")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate the settings the daemon can not start without and fill in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.CookieEncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.Webserver.CookieEncryptionKey)
		if err != nil || (len(key) != 16 && len(key) != 24 && len(key) != 32) {
			return errors.Wrap(ErrInvalidCookieKey, invalidErrMessage)
		}
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if err := validateSession(&c.Webserver.Session); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if err := validateDB(&c.DB); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if c.Auth.Google.Enabled {
		g := c.Auth.Google
		if g.ClientID == "" || g.ClientSecret == "" || g.RedirectURL == "" {
			return errors.Wrap(ErrGoogleIncomplete, invalidErrMessage)
		}
	}

	if c.Auth.Google.ProviderURL == "" {
		c.Auth.Google.ProviderURL = defaultGoogleIssuer
	}

	if c.Auth.Reset.TokenTTL <= 0 {
		c.Auth.Reset.TokenTTL = defaultTokenTTL
	}

	if c.Visitors.CacheSize <= 0 {
		c.Visitors.CacheSize = defaultCacheSize
	}

	return nil
}

func validateSession(s *Session) error {
	if s.ExpiryTime <= 0 {
		s.ExpiryTime = defaultExpiryTime
	}

	if s.ResolveTimeout <= 0 {
		s.ResolveTimeout = defaultResolveTimeout
	}

	s.Storage = strings.ToLower(s.Storage)

	switch s.Storage {
	case "":
		s.Storage = StorageMemory
	case StorageMemory, StorageMySQL, StoragePostgres:
	default:
		return ErrUnknownStorage
	}

	return nil
}

func validateDB(d *DB) error {
	d.GormEngine = strings.ToLower(d.GormEngine)

	switch d.GormEngine {
	case "":
		d.GormEngine = EngineSQLite
	case EngineMySQL, EnginePostgres, EngineSQLite:
	default:
		return ErrUnknownEngine
	}

	if d.GormEngine == EngineSQLite && d.Path == "" {
		d.Path = defaultSQLitePath
	}

	return nil
}
