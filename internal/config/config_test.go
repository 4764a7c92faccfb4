package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// Test default values
	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.Version != "1.0.0" {
		t.Errorf("Expected default version to be '1.0.0', got '%s'", cfg.Version)
	}

	if cfg.ServerName != "fieldwise" {
		t.Errorf("Expected default server name to be 'fieldwise', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	if cfg.MinMatchConfidence != DefaultMinConfidence {
		t.Errorf("Expected default min confidence to be %v, got %v", DefaultMinConfidence, cfg.MinMatchConfidence)
	}

	total := cfg.KeywordWeight + cfg.FormatWeight + cfg.StructureWeight + cfg.ContentWeight
	if total < 0.99 || total > 1.01 {
		t.Errorf("Expected default matching weights to sum to 1.0, got %v", total)
	}

	// Test that the template directory defaults under the current working directory
	currentDir, _ := os.Getwd()
	want := filepath.Join(currentDir, DefaultTemplateSubdir)
	if cfg.TemplateDirectory != want {
		t.Errorf("Expected default template directory to be '%s', got '%s'", want, cfg.TemplateDirectory)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config - stdio mode",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "valid config - server mode",
			config: &Config{
				Mode:              "server",
				Host:              "127.0.0.1",
				Port:              8080,
				TemplateDirectory: "/tmp/test",
				LogLevel:          "info",
				MaxFileSize:       1024,
				KeywordWeight:     1,
			},
			wantErr: false,
		},
		{
			name: "invalid mode",
			config: &Config{
				Mode:              "invalid",
				Host:              "127.0.0.1",
				Port:              8080,
				TemplateDirectory: "/tmp/test",
				LogLevel:          "info",
				MaxFileSize:       1024,
				KeywordWeight:     1,
			},
			wantErr: true,
		},
		{
			name: "invalid port - too low (server mode)",
			config: &Config{
				Mode:              "server",
				Host:              "127.0.0.1",
				Port:              0,
				TemplateDirectory: "/tmp/test",
				LogLevel:          "info",
				MaxFileSize:       1024,
				KeywordWeight:     1,
			},
			wantErr: true,
		},
		{
			name: "invalid port - too high (server mode)",
			config: &Config{
				Mode:              "server",
				Host:              "127.0.0.1",
				Port:              70000,
				TemplateDirectory: "/tmp/test",
				LogLevel:          "info",
				MaxFileSize:       1024,
				KeywordWeight:     1,
			},
			wantErr: true,
		},
		{
			name: "invalid port ignored in stdio mode",
			config: &Config{
				Mode:              "stdio",
				Host:              "127.0.0.1",
				Port:              0,
				TemplateDirectory: "/tmp/test",
				LogLevel:          "info",
				MaxFileSize:       1024,
				KeywordWeight:     1,
			},
			wantErr: false,
		},
		{
			name: "empty template directory",
			config: &Config{
				Mode:              "stdio",
				Host:              "127.0.0.1",
				Port:              8080,
				TemplateDirectory: "",
				LogLevel:          "info",
				MaxFileSize:       1024,
				KeywordWeight:     1,
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			config: &Config{
				Mode:              "stdio",
				Host:              "127.0.0.1",
				Port:              8080,
				TemplateDirectory: "/tmp/test",
				LogLevel:          "invalid",
				MaxFileSize:       1024,
				KeywordWeight:     1,
			},
			wantErr: true,
		},
		{
			name: "invalid max file size",
			config: &Config{
				Mode:              "stdio",
				Host:              "127.0.0.1",
				Port:              8080,
				TemplateDirectory: "/tmp/test",
				LogLevel:          "info",
				MaxFileSize:       0,
				KeywordWeight:     1,
			},
			wantErr: true,
		},
		{
			name: "min confidence above one",
			config: &Config{
				Mode:               "stdio",
				Host:               "127.0.0.1",
				Port:               8080,
				TemplateDirectory:  "/tmp/test",
				LogLevel:           "info",
				MaxFileSize:        1024,
				KeywordWeight:      1,
				MinMatchConfidence: 1.5,
			},
			wantErr: true,
		},
		{
			name: "zero weights",
			config: &Config{
				Mode:              "stdio",
				Host:              "127.0.0.1",
				Port:              8080,
				TemplateDirectory: "/tmp/test",
				LogLevel:          "info",
				MaxFileSize:       1024,
			},
			wantErr: true,
		},
		{
			name: "negative workers",
			config: &Config{
				Mode:              "stdio",
				Host:              "127.0.0.1",
				Port:              8080,
				TemplateDirectory: "/tmp/test",
				LogLevel:          "info",
				MaxFileSize:       1024,
				KeywordWeight:     1,
				Workers:           -1,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Replace the placeholder path with a real temporary directory
			if tt.config.TemplateDirectory == "/tmp/test" {
				tempDir, err := os.MkdirTemp("", "fieldwise-test-*")
				if err != nil {
					t.Fatalf("Failed to create temp dir: %v", err)
				}
				defer os.RemoveAll(tempDir)
				tt.config.TemplateDirectory = tempDir
			}

			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{
		Host: "192.168.1.1",
		Port: 9090,
	}

	expected := "192.168.1.1:9090"
	if got := cfg.Address(); got != expected {
		t.Errorf("Config.Address() = %v, want %v", got, expected)
	}
}

func TestConfigIsDebug(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     bool
	}{
		{
			name:     "debug level",
			logLevel: "debug",
			want:     true,
		},
		{
			name:     "info level",
			logLevel: "info",
			want:     false,
		},
		{
			name:     "warn level",
			logLevel: "warn",
			want:     false,
		},
		{
			name:     "error level",
			logLevel: "error",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			if got := cfg.IsDebug(); got != tt.want {
				t.Errorf("Config.IsDebug() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:               "server",
		Host:               "localhost",
		Port:               8080,
		TemplateDirectory:  "/home/user/templates",
		StorePath:          "/home/user/fieldwise.db",
		MinMatchConfidence: 0.4,
		LogLevel:           "debug",
		MaxFileSize:        1024,
	}

	result := cfg.String()

	expectedSubstrings := []string{
		"Mode: server",
		"Templates: /home/user/templates",
		"Store: /home/user/fieldwise.db",
		"MinConfidence: 0.40",
		"LogLevel: debug",
		"MaxFileSize: 1024",
	}

	for _, substr := range expectedSubstrings {
		if !strings.Contains(result, substr) {
			t.Errorf("Config.String() result doesn't contain expected substring: %s\nGot: %s", substr, result)
		}
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	// A missing template directory is created so a fresh install can start
	// with an empty catalog.
	tempParent, err := os.MkdirTemp("", "fieldwise-parent-*")
	if err != nil {
		t.Fatalf("Failed to create temp parent dir: %v", err)
	}
	defer os.RemoveAll(tempParent)

	nonExistentDir := filepath.Join(tempParent, "non-existent", "templates")

	cfg := &Config{
		Mode:              "stdio",
		Host:              "127.0.0.1",
		Port:              8080,
		TemplateDirectory: nonExistentDir,
		LogLevel:          "info",
		MaxFileSize:       1024,
		KeywordWeight:     1,
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Config.Validate() should create the missing directory, got error: %v", err)
	}

	if _, err := os.Stat(nonExistentDir); err != nil {
		t.Errorf("Directory should have been created: %s", nonExistentDir)
	}
}

func TestConfigValidateLogLevels(t *testing.T) {
	validLevels := []string{"debug", "info", "warn", "error"}
	invalidLevels := []string{"DEBUG", "INFO", "trace", "fatal", ""}

	tempDir, err := os.MkdirTemp("", "fieldwise-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	// Test valid log levels
	for _, level := range validLevels {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := &Config{
				Mode:              "stdio",
				Host:              "127.0.0.1",
				Port:              8080,
				TemplateDirectory: tempDir,
				LogLevel:          level,
				MaxFileSize:       1024,
				KeywordWeight:     1,
			}

			if err := cfg.Validate(); err != nil {
				t.Errorf("Config.Validate() should accept log level '%s', got error: %v", level, err)
			}
		})
	}

	// Test invalid log levels
	for _, level := range invalidLevels {
		t.Run("invalid_"+level, func(t *testing.T) {
			cfg := &Config{
				Mode:              "stdio",
				Host:              "127.0.0.1",
				Port:              8080,
				TemplateDirectory: tempDir,
				LogLevel:          level,
				MaxFileSize:       1024,
				KeywordWeight:     1,
			}

			if err := cfg.Validate(); err == nil {
				t.Errorf("Config.Validate() should reject log level '%s'", level)
			}
		})
	}
}

func TestConfigIsServerMode(t *testing.T) {
	tests := []struct {
		name string
		mode string
		want bool
	}{
		{
			name: "server mode",
			mode: "server",
			want: true,
		},
		{
			name: "stdio mode",
			mode: "stdio",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}
			if got := cfg.IsServerMode(); got != tt.want {
				t.Errorf("Config.IsServerMode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigIsStdioMode(t *testing.T) {
	tests := []struct {
		name string
		mode string
		want bool
	}{
		{
			name: "stdio mode",
			mode: "stdio",
			want: true,
		},
		{
			name: "server mode",
			mode: "server",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}
			if got := cfg.IsStdioMode(); got != tt.want {
				t.Errorf("Config.IsStdioMode() = %v, want %v", got, tt.want)
			}
		})
	}
}
