package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tdprofiler/internal/table"
)

// Parser converts raw file content into a table.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte) (*table.Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported file format")

// ErrEmpty is returned when the content holds no header or records.
var ErrEmpty = errors.New("no data found")

// Supported reports whether some registered parser accepts filename.
func Supported(filename string) bool {
	return lookup(filename) != nil
}

// Extensions lists the accepted file extensions.
func Extensions() []string {
	return []string{".csv", ".tsv", ".xlsx", ".xlsm", ".json"}
}

func lookup(filename string) Parser {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// ParseBytes selects a parser by filename and parses content.
func ParseBytes(filename string, content []byte) (*table.Table, error) {
	p := lookup(filename)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, strings.ToLower(filepath.Ext(filename)))
	}
	t, err := p.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(filename), err)
	}
	return t, nil
}

// ParseFile reads path and parses it with the matching parser.
func ParseFile(path string) (*table.Table, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, strings.ToLower(filepath.Ext(path)))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseBytes(path, data)
}

func hasExt(filename string, exts ...string) bool {
	name := strings.ToLower(filename)
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
	Register(jsonParser{})
}
