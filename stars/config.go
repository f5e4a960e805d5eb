package stars

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default configuration values, grounded on the teacher's
// src/config/config.go constants block.
const (
	DefaultPort        = 6057
	DefaultServerName  = "System"
	DefaultReadTimeout = 0 * time.Second
	DefaultLogLevel    = "info"
)

// Config holds everything needed to bring up one STARS server: where its
// Configuration Snapshot and secret live on disk, what port to bind, and
// how to log. Field names and mapstructure tags follow spec.md §6's CLI
// surface and INI runtime config file verbatim (`--port`/`starsport`,
// `--libdir`/`starslib`, `--keydir`/`starskey`). Grounded on the shape of
// the teacher's BabbleConfig (src/babble/babble_config.go): a flat
// struct of operational settings plus a lazily-built logger.
type Config struct {
	Port        uint16        `mapstructure:"starsport"`
	Libdir      string        `mapstructure:"starslib"`
	Keydir      string        `mapstructure:"starskey"`
	ReadTimeout time.Duration `mapstructure:"timeout"`
	ServerName  string        `mapstructure:"name"`
	LogLevel    string        `mapstructure:"log"`
	LogFile     string        `mapstructure:"logfile"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a Config with every field set to its default.
func NewDefaultConfig() *Config {
	return &Config{
		Port:        DefaultPort,
		Libdir:      DefaultDataDir(),
		Keydir:      DefaultDataDir(),
		ReadTimeout: DefaultReadTimeout,
		ServerName:  DefaultServerName,
		LogLevel:    DefaultLogLevel,
	}
}

// BindAddr returns the listen address for net.Listen: the configured
// port on all interfaces, matching spec.md §4.1 ("Binds TCP on the
// configured port").
func (c *Config) BindAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ensureLogger lazily constructs the underlying logrus.Logger the first
// time either Logger or RawLogger is called, the same lazy-init shape as
// the teacher's Config.Logger in src/config/config.go.
func (c *Config) ensureLogger() {
	if c.logger != nil {
		return
	}

	logger := logrus.New()
	logger.Level = LogLevel(c.LogLevel)
	logger.Formatter = new(prefixed.TextFormatter)

	if c.LogFile != "" {
		hook := lfshook.NewHook(lfshook.PathMap{
			logrus.ErrorLevel: c.LogFile,
			logrus.FatalLevel: c.LogFile,
		}, &logrus.TextFormatter{DisableColors: true})
		logger.AddHook(hook)
	}

	c.logger = logger
}

// Logger returns a formatted logrus.Entry, with prefix set to "stars".
func (c *Config) Logger() *logrus.Entry {
	c.ensureLogger()
	return c.logger.WithField("prefix", "stars")
}

// RawLogger returns the underlying logrus.Logger, for components that
// build their own field set (acceptor, handler).
func (c *Config) RawLogger() *logrus.Logger {
	c.ensureLogger()
	return c.logger
}

// DefaultDataDir returns the default directory for the Configuration
// Snapshot's pattern files and the server secret, following the same
// per-OS convention as the teacher's DefaultDataDir.
func DefaultDataDir() string {
	home := HomeDir()
	if home == "" {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, ".stars")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "STARS")
	default:
		return filepath.Join(home, ".stars")
	}
}

// HomeDir returns the current user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel maps a level name to a logrus.Level, defaulting to Info for
// anything unrecognized.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}
