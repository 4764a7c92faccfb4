package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a single template definition from a YAML or JSON file.
// The template is validated before it is returned; a file that parses but
// fails validation is rejected.
func LoadFile(path string, checks *CheckRegistry) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	var tpl Template
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported template file extension: %s", path)
	}

	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	if err := tpl.Validate(checks); err != nil {
		return nil, fmt.Errorf("template file %s: %w", path, err)
	}
	return &tpl, nil
}

// LoadDir reads every .yaml/.yml/.json template definition in a directory.
// Files that fail to load are reported together after the scan rather than
// aborting it.
func LoadDir(dir string, checks *CheckRegistry) ([]*Template, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read template directory: %w", err)}
	}

	var templates []*Template
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}
		tpl, err := LoadFile(filepath.Join(dir, entry.Name()), checks)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		templates = append(templates, tpl)
	}
	return templates, errs
}
