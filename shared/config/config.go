package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultMaxUploadBytes = 5 << 20
	DefaultToastTTL       = 4200 * time.Millisecond
	DefaultAPITimeout     = 15 * time.Second
)

var DefaultAllowedImageMimeTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type Config struct {
	Public  Public
	private Private
}

type Public struct {
	API      API           `yaml:"api"`
	Viewer   Viewer        `yaml:"viewer"`
	Upload   Upload        `yaml:"upload"`
	Prefs    Prefs         `yaml:"prefs"`
	Log      Log           `yaml:"log"`
	ToastTTL time.Duration `yaml:"toast_ttl"`
}

// API holds one endpoint per resource kind; they are never derived from each other.
type API struct {
	ThreadsURL string        `yaml:"threads_url"`
	RepliesURL string        `yaml:"replies_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Viewer struct {
	Authenticated bool   `yaml:"authenticated"`
	Identity      string `yaml:"identity"`
	Privileged    bool   `yaml:"privileged"`
}

type Upload struct {
	MaxBytes         int64    `yaml:"max_bytes"`
	AllowedMimeTypes []string `yaml:"allowed_mime_types"`
}

type Prefs struct {
	Backend string `yaml:"backend"` // memory, file or sqlite
	Path    string `yaml:"path"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Private struct {
	CSRFToken    string `yaml:"csrf_token"`
	SessionToken string `yaml:"session_token"` // optional JWT identifying the viewer
	JwtKey       string `yaml:"jwt_key"`
}

func (s *Config) CSRFToken() string {
	return s.private.CSRFToken
}

func (s *Config) SessionToken() string {
	return s.private.SessionToken
}

func (s *Config) JwtKey() string {
	return s.private.JwtKey
}

// New builds a config without files, used by tests and embedding hosts.
func New(public Public, private Private) (*Config, error) {
	cfg := &Config{public, private}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Config) applyDefaults() {
	if s.Public.API.Timeout == 0 {
		s.Public.API.Timeout = DefaultAPITimeout
	}
	if s.Public.Upload.MaxBytes == 0 {
		s.Public.Upload.MaxBytes = DefaultMaxUploadBytes
	}
	if len(s.Public.Upload.AllowedMimeTypes) == 0 {
		s.Public.Upload.AllowedMimeTypes = DefaultAllowedImageMimeTypes
	}
	if s.Public.ToastTTL == 0 {
		s.Public.ToastTTL = DefaultToastTTL
	}
	if s.Public.Prefs.Backend == "" {
		s.Public.Prefs.Backend = "memory"
	}
	if s.Public.Log.Level == "" {
		s.Public.Log.Level = "info"
	}
}

func (s *Config) validate() error {
	if s.Public.API.ThreadsURL == "" {
		return fmt.Errorf("api.threads_url is required")
	}
	if s.Public.API.RepliesURL == "" {
		return fmt.Errorf("api.replies_url is required")
	}
	// the forgery token comes from the host page; running without it is a deployment mistake
	if s.private.CSRFToken == "" {
		return fmt.Errorf("csrf_token is required")
	}
	switch s.Public.Prefs.Backend {
	case "memory":
	case "file", "sqlite":
		if s.Public.Prefs.Path == "" {
			return fmt.Errorf("prefs.path is required for %s backend", s.Public.Prefs.Backend)
		}
	default:
		return fmt.Errorf("unknown prefs backend %q", s.Public.Prefs.Backend)
	}
	return nil
}

func mustLoadPath(configPath string, output interface{}) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)

	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg, err := New(public, private)
	if err != nil {
		panic("invalid config: " + err.Error())
	}
	return cfg
}
