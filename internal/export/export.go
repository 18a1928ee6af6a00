// Package export writes analytics views to spreadsheet and document formats.
package export

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/plantwatch/internal/dashboard"
)

// Format names an export encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", eris.Errorf("export: unsupported file extension %q (want .xlsx, .yaml or .yml)", filepath.Ext(path))
	}
}

// Report is an analytics view stamped with when it was generated.
type Report struct {
	GeneratedAt time.Time               `yaml:"generated_at"`
	Analytics   dashboard.AnalyticsView `yaml:"analytics"`
}

// Write encodes r to w in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, r)
	case FormatYAML:
		return WriteYAML(w, r)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}
