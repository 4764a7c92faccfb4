package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort           = 8080
	DefaultHost           = "127.0.0.1"
	DefaultLogLevel       = "info"
	DefaultMaxFileSize    = 100 * 1024 * 1024 // 100MB
	DefaultMinConfidence  = 0.3
	DefaultWorkers        = 0 // 0 means one per core
	DefaultKeywordWeight  = 0.35
	DefaultFormatWeight   = 0.10
	DefaultStructWeight   = 0.20
	DefaultContentWeight  = 0.35
	DefaultStoreFileName  = "fieldwise.db"
	DefaultTemplateSubdir = "templates"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the fieldwise server.
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Catalog configuration
	TemplateDirectory string // directory of YAML/JSON template definitions
	StorePath         string // SQLite database path; empty selects in-memory

	// Engine configuration
	MinMatchConfidence float64
	KeywordWeight      float64
	FormatWeight       float64
	StructureWeight    float64
	ContentWeight      float64
	Workers            int

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum document size in bytes
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:               ModeStdio,
		Host:               DefaultHost,
		Port:               DefaultPort,
		TemplateDirectory:  filepath.Join(currentDir, DefaultTemplateSubdir),
		StorePath:          filepath.Join(currentDir, DefaultStoreFileName),
		MinMatchConfidence: DefaultMinConfidence,
		KeywordWeight:      DefaultKeywordWeight,
		FormatWeight:       DefaultFormatWeight,
		StructureWeight:    DefaultStructWeight,
		ContentWeight:      DefaultContentWeight,
		Workers:            DefaultWorkers,
		Version:            "1.0.0",
		ServerName:         "fieldwise",
		LogLevel:           DefaultLogLevel,
		MaxFileSize:        DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.TemplateDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.TemplateDirectory); err == nil {
			cfg.TemplateDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("FIELDWISE")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("templates", cfg.TemplateDirectory)
	viper.SetDefault("store", cfg.StorePath)
	viper.SetDefault("minconfidence", cfg.MinMatchConfidence)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("weight.keyword", cfg.KeywordWeight)
	viper.SetDefault("weight.format", cfg.FormatWeight)
	viper.SetDefault("weight.structure", cfg.StructureWeight)
	viper.SetDefault("weight.content", cfg.ContentWeight)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("templates", cfg.TemplateDirectory, "Directory of template definition files")
	pflag.String("store", cfg.StorePath, "Path to the SQLite template store (empty for in-memory)")
	pflag.Float64("minconfidence", cfg.MinMatchConfidence, "Minimum match confidence for template ranking")
	pflag.Int("workers", cfg.Workers, "Batch extraction workers (0 for one per core)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum document size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("templates", pflag.Lookup("templates"))
	_ = viper.BindPFlag("store", pflag.Lookup("store"))
	_ = viper.BindPFlag("minconfidence", pflag.Lookup("minconfidence"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message.
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nfieldwise - template-driven field extraction engine\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                        # stdio mode, ./templates\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --templates=/etc/fieldwise/templates   # custom template directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --store=/var/lib/fieldwise.db          # persistent store\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  FIELDWISE_MODE           Server mode\n")
		fmt.Fprintf(os.Stderr, "  FIELDWISE_TEMPLATES      Template directory\n")
		fmt.Fprintf(os.Stderr, "  FIELDWISE_STORE          Store path\n")
		fmt.Fprintf(os.Stderr, "  FIELDWISE_MINCONFIDENCE  Match confidence floor\n")
		fmt.Fprintf(os.Stderr, "  FIELDWISE_WORKERS        Batch workers\n")
		fmt.Fprintf(os.Stderr, "  FIELDWISE_LOGLEVEL       Log level\n")
		fmt.Fprintf(os.Stderr, "  FIELDWISE_MAXFILESIZE    Maximum file size\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.TemplateDirectory = viper.GetString("templates")
	cfg.StorePath = viper.GetString("store")
	cfg.MinMatchConfidence = viper.GetFloat64("minconfidence")
	cfg.Workers = viper.GetInt("workers")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.KeywordWeight = viper.GetFloat64("weight.keyword")
	cfg.FormatWeight = viper.GetFloat64("weight.format")
	cfg.StructureWeight = viper.GetFloat64("weight.structure")
	cfg.ContentWeight = viper.GetFloat64("weight.content")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.TemplateDirectory == "" {
		return errors.New("template directory cannot be empty")
	}
	if _, err := os.Stat(c.TemplateDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.TemplateDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create template directory %s: %w", c.TemplateDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access template directory %s: %w", c.TemplateDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.MinMatchConfidence < 0 || c.MinMatchConfidence > 1 {
		return errors.New("minimum match confidence must be within [0, 1]")
	}
	if c.KeywordWeight+c.FormatWeight+c.StructureWeight+c.ContentWeight <= 0 {
		return errors.New("matching weights must sum to a positive value")
	}
	if c.Workers < 0 {
		return errors.New("workers cannot be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Templates: %s, Store: %s, MinConfidence: %.2f, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.TemplateDirectory, c.StorePath, c.MinMatchConfidence, c.LogLevel, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode.
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode.
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
