// Package knowledgeparser loads knowledge tables from the embedded defaults or from an
// override YAML file on disk.
package knowledgeparser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/giygas/clinical-cases-api/interfaces"
	"github.com/giygas/clinical-cases-api/knowledge"
	"github.com/giygas/clinical-cases-api/logging"
	"golang.org/x/text/encoding/charmap"
)

// MaxFileSize bounds the size of an override file.
const MaxFileSize = 10 * 1024 * 1024

// SourceEmbedded is reported when the tables come from the binary.
const SourceEmbedded = "embedded"

// Compile-time check to ensure Parser implements the KnowledgeParser interface
var _ interfaces.KnowledgeParser = (*Parser)(nil)

// Parser loads tables from path, or from the embedded defaults when path is empty.
type Parser struct {
	path string
}

// NewParser creates a parser for the override file at path. An empty path selects the
// embedded tables.
func NewParser(path string) *Parser {
	return &Parser{path: path}
}

// ParseKnowledge implements the KnowledgeParser interface. The returned source is
// "embedded" or "file:<path>".
func (p *Parser) ParseKnowledge() (*knowledge.Tables, string, error) {
	if p.path == "" {
		tables, err := Parse(knowledge.EmbeddedYAML())
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse embedded tables: %w", err)
		}
		return tables, SourceEmbedded, nil
	}

	tables, err := LoadFile(p.path)
	if err != nil {
		return nil, "", err
	}
	return tables, "file:" + p.path, nil
}

// Parse decodes YAML tables. Input that is not valid UTF-8 is decoded as ISO-8859-1 first.
func Parse(data []byte) (*knowledge.Tables, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("knowledge tables are empty")
	}

	if !utf8.Valid(data) {
		decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("failed to decode ISO-8859-1 tables: %w", err)
		}
		logging.Warn("Knowledge tables are not valid UTF-8, decoded as ISO-8859-1")
		data = decoded
	}

	return knowledge.Decode(data)
}

// LoadFile reads and parses an override file.
func LoadFile(path string) (*knowledge.Tables, error) {
	cleanPath := filepath.Clean(path)

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge file %s: %w", cleanPath, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close knowledge file", "path", cleanPath, "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file %s: %w", cleanPath, err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("knowledge file %s exceeds %d bytes", cleanPath, MaxFileSize)
	}

	tables, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse knowledge file %s: %w", cleanPath, err)
	}

	logging.Info("Knowledge file loaded",
		"path", cleanPath,
		"version", tables.Version,
		"entries", tables.EntryCount(),
		"topics", len(tables.Topics))
	return tables, nil
}
