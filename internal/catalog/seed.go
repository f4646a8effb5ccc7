package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Books []Entry `json:"books" yaml:"books"`
}

// LoadFile reads catalog entries from a YAML or JSON file. The document is
// either a bare list of entries or an object with a "books" list.
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	entries, err := Parse(data, strings.ToLower(filepath.Ext(path)) == ".json")
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

// Parse decodes entries from YAML, or from JSON when isJSON is set.
func Parse(data []byte, isJSON bool) ([]Entry, error) {
	unmarshal := yaml.Unmarshal
	if isJSON {
		unmarshal = json.Unmarshal
	}

	var list []Entry
	if err := unmarshal(data, &list); err != nil {
		var doc seedFile
		if err2 := unmarshal(data, &doc); err2 != nil {
			return nil, err2
		}
		list = doc.Books
	}

	out := make([]Entry, 0, len(list))
	for i, e := range list {
		e = e.Normalize()
		if e.Title == "" || e.Author == "" {
			return nil, fmt.Errorf("entry %d: title and author are required", i)
		}
		out = append(out, e)
	}
	return out, nil
}
