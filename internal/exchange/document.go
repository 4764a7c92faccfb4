package exchange

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/structa/fieldwise/internal/template"
	"github.com/structa/fieldwise/internal/version"
)

// FormatVersion is the export document format this engine writes and the
// major line it accepts on import.
const FormatVersion = "1.1"

// Document is the template export/import interchange format.
type Document struct {
	Version    string             `json:"version"`
	ExportedAt time.Time          `json:"exportedAt"`
	Integrity  string             `json:"integrity,omitempty"`
	Templates  []ExportedTemplate `json:"templates"`
}

// ExportedTemplate is one template with its optional history and usage
// statistics.
type ExportedTemplate struct {
	template.Template
	Versions []*version.Record    `json:"versions,omitempty"`
	Usage    *template.UsageStats `json:"usage,omitempty"`
}

// integrityHash is the hex sha256 of the serialized templates array; it is
// recomputed and compared on import when present.
func integrityHash(templates []ExportedTemplate) (string, error) {
	data, err := json.Marshal(templates)
	if err != nil {
		return "", fmt.Errorf("serializing templates for integrity hash: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// majorVersion parses the leading component of a format version string.
// Both "1.2" and "1.x" forms are accepted.
func majorVersion(v string) (int, error) {
	head, _, _ := strings.Cut(v, ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("invalid format version %q", v)
	}
	return major, nil
}
