package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/execution"
	"github.com/Redn0217/code-path-assessment-platform-sub000/internal/sandbox"
)

type PythonConfig struct {
	Binary string `mapstructure:"binary"`
}

type RuntimeConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	MaxTimeout     time.Duration `mapstructure:"max_timeout"`
	LoadTimeout    time.Duration `mapstructure:"load_timeout"`
	MaxOutputBytes int           `mapstructure:"max_output_bytes"`
	MemoryLimitMB  int           `mapstructure:"memory_limit_mb"`
	Languages      []string      `mapstructure:"languages"`
	CaseDelay      time.Duration `mapstructure:"case_delay"`
	Python         PythonConfig  `mapstructure:"python"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type QuestionsConfig struct {
	Dir string `mapstructure:"dir"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Config struct {
	Runtime   RuntimeConfig   `mapstructure:"runtime"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Questions QuestionsConfig `mapstructure:"questions"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Log       LogConfig       `mapstructure:"log"`
}

// Load reads assess.yaml from path, or from the working directory and
// $HOME/.assess when path is empty. Values from a .env file and ASSESS_*
// environment variables override the file. A missing config file is only an
// error when path names it explicitly.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("assess")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.assess")
	}

	setDefaults(v)

	v.SetEnvPrefix("ASSESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("runtime.default_timeout", 5*time.Second)
	v.SetDefault("runtime.max_timeout", 30*time.Second)
	v.SetDefault("runtime.load_timeout", 30*time.Second)
	v.SetDefault("runtime.max_output_bytes", 1<<20)
	v.SetDefault("runtime.memory_limit_mb", 0)
	v.SetDefault("runtime.languages", []string{"python", "javascript", "shell"})
	v.SetDefault("runtime.case_delay", time.Duration(0))
	v.SetDefault("runtime.python.binary", "python3")
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".assess", "assess.db"))
	v.SetDefault("questions.dir", "./questions")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "assess")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate checks values that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	if c.Runtime.DefaultTimeout <= 0 {
		return fmt.Errorf("runtime.default_timeout must be positive, got %s", c.Runtime.DefaultTimeout)
	}
	if c.Runtime.MaxTimeout <= 0 {
		return fmt.Errorf("runtime.max_timeout must be positive, got %s", c.Runtime.MaxTimeout)
	}
	if c.Runtime.DefaultTimeout > c.Runtime.MaxTimeout {
		return fmt.Errorf("runtime.default_timeout %s exceeds runtime.max_timeout %s",
			c.Runtime.DefaultTimeout, c.Runtime.MaxTimeout)
	}
	if c.Runtime.LoadTimeout <= 0 {
		return fmt.Errorf("runtime.load_timeout must be positive, got %s", c.Runtime.LoadTimeout)
	}
	if c.Runtime.MaxOutputBytes <= 0 {
		return fmt.Errorf("runtime.max_output_bytes must be positive, got %d", c.Runtime.MaxOutputBytes)
	}
	if _, err := c.Languages(); err != nil {
		return err
	}
	return nil
}

// Languages resolves runtime.languages.
func (c *Config) Languages() ([]execution.Language, error) {
	langs := make([]execution.Language, 0, len(c.Runtime.Languages))
	for _, name := range c.Runtime.Languages {
		lang, err := execution.ParseLanguage(name)
		if err != nil {
			return nil, fmt.Errorf("runtime.languages: %w", err)
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

// Policy builds the sandbox policy from the runtime section.
func (c *Config) Policy() sandbox.Policy {
	langs, _ := c.Languages()
	return sandbox.Policy{
		DefaultTimeout: c.Runtime.DefaultTimeout,
		MaxTimeout:     c.Runtime.MaxTimeout,
		MaxOutputBytes: c.Runtime.MaxOutputBytes,
		MemoryLimitMB:  c.Runtime.MemoryLimitMB,
		Languages:      langs,
	}
}
