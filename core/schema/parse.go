package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses a catalog from a YAML file.
func ParseFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read file %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse parses and checks a catalog from YAML bytes.
func Parse(data []byte) (Catalog, error) {
	c, err := decode(data)
	if err != nil {
		return Catalog{}, err
	}

	if err := Check(c); err != nil {
		return Catalog{}, fmt.Errorf("check catalog: %w", err)
	}

	return c, nil
}

func decode(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse yaml: %w", err)
	}
	return c, nil
}

// ParseDir parses every catalog under dir, including subdirectories, and
// checks the merged result so children may live in a different file.
func ParseDir(dir string) (Catalog, error) {
	var parts []Catalog
	if err := decodeDir(dir, &parts); err != nil {
		return Catalog{}, err
	}

	c := Merge(parts...)
	if err := Check(c); err != nil {
		return Catalog{}, fmt.Errorf("check catalog %s: %w", dir, err)
	}
	return c, nil
}

func decodeDir(dir string, parts *[]Catalog) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := decodeDir(path, parts); err != nil {
				return err
			}
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read file %s: %w", path, err)
		}
		c, err := decode(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		*parts = append(*parts, c)
	}

	return nil
}

// Load reads a catalog from a file or a directory.
func Load(path string) (Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return ParseDir(path)
	}
	return ParseFile(path)
}
