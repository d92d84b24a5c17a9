package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// DefaultLocation is the configuration file used when no --config flag or
// BOTDECK_CONFIG variable is provided.
var DefaultLocation = GetDefaultConfigLocation()

var (
	mu            sync.RWMutex
	_config       *Configuration
	_debugViaFlag bool
)

// Locker specific to writing the configuration to the disk, this happens
// in areas that might already be locked, so we don't want to crash the process.
var _writeLock sync.Mutex

// LogConfiguration controls where log lines are written besides the terminal.
type LogConfiguration struct {
	// When set, JSON log lines are appended to this file. The file is reopened
	// when the process receives SIGHUP so external rotation works.
	File string `json:"file" yaml:"file"`

	Level string `default:"info" json:"level" yaml:"level"`
}

// RemoteConfiguration defines how requests to the bot server are made.
type RemoteConfiguration struct {
	// Timeout in seconds applied to every request. Zero, the default, leaves
	// requests bound only by the command's context.
	Timeout int `json:"timeout" yaml:"timeout"`

	// UserAgent overrides the default "botdeck/<version>" user agent.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// CustomHeaders are added to every request, useful when the bot server
	// sits behind an access proxy.
	CustomHeaders map[string]string `json:"custom_headers" yaml:"custom_headers"`
}

// RequestTimeout returns the timeout as a duration.
func (r RemoteConfiguration) RequestTimeout() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}

// PollConfiguration controls the periodic status refresh.
type PollConfiguration struct {
	Interval int `default:"5" json:"interval" yaml:"interval"`
	Workers  int `default:"4" json:"workers" yaml:"workers"`
}

// Every returns the poll interval as a duration.
func (p PollConfiguration) Every() time.Duration {
	if p.Interval <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.Interval) * time.Second
}

type Configuration struct {
	// The location from which this configuration instance was instantiated.
	path string

	// Determines if botdeck should be running in debug mode. This value is
	// ignored if the debug flag is passed through the command line arguments.
	Debug bool `json:"debug" yaml:"debug"`

	// Database is the sqlite file holding the bot and its groups.
	Database string `json:"database" yaml:"database"`

	Log    LogConfiguration    `json:"log" yaml:"log"`
	Remote RemoteConfiguration `json:"remote" yaml:"remote"`
	Poll   PollConfiguration   `json:"poll" yaml:"poll"`
}

// NewAtPath creates a new struct and set the path where it should be stored.
// This function does not modify the currently stored global configuration.
func NewAtPath(path string) (*Configuration, error) {
	var c Configuration
	if err := defaults.Set(&c); err != nil {
		return nil, err
	}
	if c.Database == "" {
		c.Database = filepath.Join(filepath.Dir(path), "botdeck.db")
	}
	c.path = path
	return &c, nil
}

// Set the global configuration instance. This is a blocking operation such that
// anything trying to set a different configuration value, or read the configuration
// will be paused until it is complete.
func Set(c *Configuration) {
	mu.Lock()
	defer mu.Unlock()
	_config = c
}

// SetDebugViaFlag tracks if the application is running in debug mode because of
// a command line flag argument. If so we do not want to store that configuration
// change to the disk.
func SetDebugViaFlag(d bool) {
	mu.Lock()
	defer mu.Unlock()
	_config.Debug = d
	_debugViaFlag = d
}

// Get returns the global configuration instance. This is a thread-safe operation
// that will block if the configuration is presently being modified.
//
// Modifications to the returned struct are not stored, use Update for that.
func Get() *Configuration {
	mu.RLock()
	//goland:noinspection GoVetCopyLock
	c := *_config
	mu.RUnlock()
	return &c
}

// Update performs an in-situ update of the global configuration object using
// a thread-safe mutex lock.
func Update(callback func(c *Configuration)) {
	mu.Lock()
	defer mu.Unlock()
	callback(_config)
}

// Path returns the file path where this configuration is stored.
func (c *Configuration) Path() string {
	return c.path
}

// WriteToDisk writes the configuration to the disk. Only one write runs at a
// time. When the file already exists its comments and key order are kept.
func WriteToDisk(c *Configuration) error {
	_writeLock.Lock()
	defer _writeLock.Unlock()

	//goland:noinspection GoVetCopyLock
	ccopy := *c
	// If debugging is set with the flag, don't save that to the configuration file,
	// otherwise you'll always end up in debug mode.
	if _debugViaFlag {
		ccopy.Debug = false
	}
	if c.path == "" {
		return errors.New("config: cannot write configuration, no path defined in struct")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return errors.Wrap(err, "config: failed to create configuration directory")
	}

	var b []byte
	raw, err := os.ReadFile(c.path)
	switch {
	case err == nil:
		b, err = mergeWithExisting(raw, &ccopy)
	case os.IsNotExist(err):
		b, err = yaml.Marshal(&ccopy)
	default:
		return errors.Wrap(err, "config: failed to read existing configuration")
	}
	if err != nil {
		return errors.Wrap(err, "config: failed to encode configuration")
	}
	if err := os.WriteFile(c.path, b, 0o600); err != nil {
		return errors.Wrap(err, "config: failed to write configuration")
	}
	log.WithField("path", c.path).Debug("wrote configuration to disk")
	return nil
}

// FromFile reads the configuration from the provided file and stores it in the
// global singleton for this instance. A missing file yields the defaults so
// that every command works before "configure" has been run.
func FromFile(path string) error {
	c, err := NewAtPath(path)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "config: failed to read configuration file")
	}
	if err == nil {
		if err := yaml.Unmarshal(b, c); err != nil {
			return errors.Wrap(err, "config: failed to parse configuration file")
		}
	}

	for k, v := range c.Remote.CustomHeaders {
		if c.Remote.CustomHeaders[k], err = Expand(v); err != nil {
			return err
		}
	}

	Set(c)
	return nil
}

// EnsureDirectories creates the directory holding the database file.
func EnsureDirectories() error {
	mu.RLock()
	dir := filepath.Dir(_config.Database)
	mu.RUnlock()

	log.WithField("path", dir).Debug("ensuring data directory exists")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "config: failed to create data directory")
	}
	return nil
}

// Expand expands an input string by calling [os.ExpandEnv] to expand all
// environment variables, then checks if the value is prefixed with `file://`
// to support reading the value from a file.
//
// The order matters: `file://${CREDENTIALS_DIRECTORY}/api_key` works with
// credentials loaded by systemd's LoadCredential.
func Expand(v string) (string, error) {
	v = os.ExpandEnv(v)

	const filePrefix = "file://"
	if strings.HasPrefix(v, filePrefix) {
		p := v[len(filePrefix):]

		b, err := os.ReadFile(p)
		if err != nil {
			return "", errors.Wrapf(err, "config: failed to read %s", p)
		}
		v = string(bytes.TrimRight(bytes.TrimRight(b, "\r"), "\n"))
	}

	return v, nil
}
