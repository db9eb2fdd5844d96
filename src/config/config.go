package config

import (
	"crypto/ecdsa"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/arborworks/canopy/src/common"
	"github.com/arborworks/canopy/src/retry"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultKeyfile is the default name of the file containing the signer's
	// private key.
	DefaultKeyfile = "priv_key"

	// DefaultBadgerFile is the default name of the folder containing the
	// Badger database.
	DefaultBadgerFile = "badger_db"

	// DefaultLevelFile is the default name of the folder containing the
	// LevelDB database.
	DefaultLevelFile = "level_db"
)

// Store backend names accepted by the "store" option.
const (
	BackendInmem   = "inmem"
	BackendBadger  = "badger"
	BackendLevelDB = "leveldb"
)

// Default configuration values.
const (
	DefaultLogLevel    = "debug"
	DefaultServiceAddr = "127.0.0.1:8000"
	DefaultBackend     = BackendInmem
	DefaultMaxDepth    = 14
	DefaultRPCAddr     = "127.0.0.1:8899"
	DefaultWindowSize  = 1000 * time.Millisecond
	DefaultMaxRequests = 10
)

// Config contains all the configuration properties of a canopy node.
type Config struct {
	// DataDir is the top-level directory containing canopy configuration and
	// data.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, duplicates log output to a file.
	LogFile string `mapstructure:"log-file"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// Backend selects the durable tree store: inmem, badger, or leveldb.
	// The inmem backend does not survive a restart.
	Backend string `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// MaxDepth is the depth of trees created for authorities with no
	// persisted state; capacity is 2^MaxDepth leaves.
	MaxDepth int `mapstructure:"max-depth"`

	// RPCAddr is the address of the remote network's RPC endpoint.
	RPCAddr string `mapstructure:"rpc-addr"`

	// NoSimulation disables the pre-flight dry run of submissions.
	NoSimulation bool `mapstructure:"no-simulation"`

	// WindowSize is the trailing window of the submission rate limiter.
	WindowSize time.Duration `mapstructure:"window"`

	// MaxRequests is the number of submissions admitted per window.
	MaxRequests int `mapstructure:"max-requests"`

	// MaxAttempts caps the send attempts per submission.
	MaxAttempts int `mapstructure:"max-attempts"`

	// BaseDelay is the backoff delay after the first failed attempt. It
	// doubles after every further failure, up to MaxDelay.
	BaseDelay time.Duration `mapstructure:"base-delay"`

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration `mapstructure:"max-delay"`

	// Key is the private key of the signer.
	Key *ecdsa.PrivateKey

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:     DefaultDataDir(),
		LogLevel:    DefaultLogLevel,
		ServiceAddr: DefaultServiceAddr,
		Backend:     DefaultBackend,
		DatabaseDir: DefaultDatabaseDir(),
		MaxDepth:    DefaultMaxDepth,
		RPCAddr:     DefaultRPCAddr,
		WindowSize:  DefaultWindowSize,
		MaxRequests: DefaultMaxRequests,
		MaxAttempts: retry.DefaultMaxAttempts,
		BaseDelay:   retry.DefaultBaseDelay,
		MaxDelay:    retry.DefaultMaxDelay,
	}
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level canopy directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitely
// set it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, c.databaseFile())
	}
}

// databaseFile returns the database folder name matching the selected
// backend.
func (c *Config) databaseFile() string {
	if c.Backend == BackendLevelDB {
		return DefaultLevelFile
	}
	return DefaultBadgerFile
}

// Keyfile returns the full path of the file containing the private key.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// RetryConfig returns the retry parameters as a retry.Config.
func (c *Config) RetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay,
		MaxDelay:    c.MaxDelay,
	}
}

// Logger returns a formatted logrus Entry, with prefix set to "canopy".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			c.logger.Hooks.Add(lfshook.NewHook(
				c.LogFile,
				new(logrus.TextFormatter),
			))
		}
	}
	return c.logger.WithField("prefix", "canopy")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level canopy
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Canopy")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Canopy")
		} else {
			return filepath.Join(home, ".canopy")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
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
		return logrus.DebugLevel
	}
}
