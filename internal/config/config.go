package config

import (
	"errors"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr        string
	AllowedExtensions []string
	MaxUploadBytes    int64
	Model             string
	Device            string
	PythonBin         string
	TempDir           string
	CacheDir          string
	CacheEnabled      bool
	TranscribeTimeout time.Duration
	EngineConcurrency int
	LogLevel          string
}

type envConfig struct {
	ListenAddr                string `env:"LISTEN_ADDR" envDefault:":8000"`
	AllowedExtensions         string `env:"ALLOWED_EXTENSIONS" envDefault:"mp3,wav,m4a,flac,ogg,wma,aac"`
	MaxUploadBytes            int64  `env:"MAX_UPLOAD_BYTES" envDefault:"104857600"`
	Model                     string `env:"WHISPER_MODEL" envDefault:"base"`
	Device                    string `env:"WHISPER_DEVICE" envDefault:"cpu"`
	PythonBin                 string `env:"PYTHON_BIN" envDefault:"python3"`
	TempDir                   string `env:"TEMP_DIR"`
	CacheDir                  string `env:"CACHE_DIR" envDefault:"./transcription_cache"`
	CacheEnabled              bool   `env:"CACHE_ENABLED" envDefault:"true"`
	TranscribeTimeoutSeconds  int    `env:"TRANSCRIBE_TIMEOUT_SECONDS" envDefault:"300"`
	EngineConcurrency         int    `env:"ENGINE_CONCURRENCY" envDefault:"1"`
	LogLevel                  string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var raw envConfig
	if err := cenv.Parse(&raw); err != nil {
		return Config{}, err
	}

	cfg := Config{
		ListenAddr:        strings.TrimSpace(raw.ListenAddr),
		AllowedExtensions: splitExtensions(raw.AllowedExtensions),
		MaxUploadBytes:    raw.MaxUploadBytes,
		Model:             strings.ToLower(strings.TrimSpace(raw.Model)),
		Device:            strings.ToLower(strings.TrimSpace(raw.Device)),
		PythonBin:         strings.TrimSpace(raw.PythonBin),
		TempDir:           strings.TrimSpace(raw.TempDir),
		CacheDir:          strings.TrimSpace(raw.CacheDir),
		CacheEnabled:      raw.CacheEnabled,
		TranscribeTimeout: time.Duration(raw.TranscribeTimeoutSeconds) * time.Second,
		EngineConcurrency: raw.EngineConcurrency,
		LogLevel:          strings.ToLower(strings.TrimSpace(raw.LogLevel)),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("LISTEN_ADDR must not be empty")
	}
	if len(c.AllowedExtensions) == 0 {
		return errors.New("ALLOWED_EXTENSIONS must list at least one extension")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.Model == "" {
		return errors.New("WHISPER_MODEL must not be empty")
	}
	if c.PythonBin == "" {
		return errors.New("PYTHON_BIN must not be empty")
	}
	if c.CacheEnabled && c.CacheDir == "" {
		return errors.New("CACHE_DIR must not be empty when CACHE_ENABLED is true")
	}
	if c.TranscribeTimeout <= 0 {
		return errors.New("TRANSCRIBE_TIMEOUT_SECONDS must be > 0")
	}
	if c.EngineConcurrency <= 0 {
		return errors.New("ENGINE_CONCURRENCY must be > 0")
	}
	return nil
}

// splitExtensions normalizes a comma-separated allow-list: lower-cased,
// trimmed, without a leading dot, duplicates dropped.
func splitExtensions(raw string) []string {
	fields := strings.Split(raw, ",")
	seen := make(map[string]struct{}, len(fields))
	exts := make([]string, 0, len(fields))
	for _, field := range fields {
		ext := strings.ToLower(strings.TrimSpace(field))
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	return exts
}
