package templates

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// exampleFile is a documentation sample kept next to real templates.
const exampleFile = "EXAMPLE.json"

// BuildManifest scans fsys for <symbol>/<name>.json files. Symbols without
// template files are omitted and file names are sorted.
func BuildManifest(fsys fs.FS) (Manifest, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read template root: %w", err)
	}

	m := Manifest{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		symbol := entry.Name()

		files, err := fs.ReadDir(fsys, symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", symbol, err)
		}

		var names []string
		for _, f := range files {
			name := f.Name()
			if f.IsDir() || !strings.HasSuffix(name, ".json") || name == exampleFile || name == ManifestFile {
				continue
			}
			names = append(names, name)
		}
		if len(names) > 0 {
			slices.Sort(names)
			m[symbol] = names
		}
	}
	return m, nil
}

// WriteManifest builds the manifest for dir and writes it to dir/manifest.json.
func WriteManifest(dir string) (Manifest, error) {
	m, err := BuildManifest(os.DirFS(dir))
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ManifestFile), append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	return m, nil
}
