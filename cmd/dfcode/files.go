package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"dfcode.dev/internal/template"
)

// readTemplateFile loads a template from a JSON document (comments and
// trailing commas allowed) or from a file holding a compressed envelope.
func readTemplateFile(path string) (template.Template, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return template.Template{}, nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	var doc []byte
	if len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '/' {
		t, err := template.Decompress(string(trimmed))
		if err != nil {
			return template.Template{}, nil, fmt.Errorf("%s: %w", path, err)
		}
		if doc, err = t.Document(); err != nil {
			return template.Template{}, nil, fmt.Errorf("%s: %w", path, err)
		}
	} else {
		doc = jsonc.ToJSON(raw)
	}

	if err := template.ValidateDocument(doc); err != nil {
		return template.Template{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	t, err := template.FromDocument(doc)
	if err != nil {
		return template.Template{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, doc, nil
}

func templateName(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".jsonc", ".json", ".txt", ".dft"} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

func readTemplateFiles(paths []string) ([]template.Template, error) {
	out := make([]template.Template, 0, len(paths))
	for _, p := range paths {
		t, _, err := readTemplateFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func isNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }
