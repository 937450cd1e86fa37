package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ManifestFile is the name of the discovery manifest at a source's root.
const ManifestFile = "manifest.json"

// ErrNotExist is returned by a Source for a missing manifest or template file.
var ErrNotExist = errors.New("template file does not exist")

// Manifest maps each symbol to the template file names stored for it.
type Manifest map[string][]string

// Source provides raw template files organized per symbol.
type Source interface {
	// Manifest returns the discovery manifest, or ErrNotExist if there is none.
	Manifest(ctx context.Context) (Manifest, error)
	// Open returns the raw JSON of one template file.
	Open(ctx context.Context, symbol, name string) ([]byte, error)
}

// validName reports whether s is usable as a single path element.
func validName(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}

// DirSource reads templates laid out as <symbol>/<name> under the root of a
// file system, with an optional manifest.json at the root.
type DirSource struct {
	fsys fs.FS
}

// NewDirSource returns a Source reading from fsys.
func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

// Manifest reads and decodes manifest.json.
func (s *DirSource) Manifest(ctx context.Context) (Manifest, error) {
	data, err := s.read(ManifestFile)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}
	return m, nil
}

// Open reads <symbol>/<name>.
func (s *DirSource) Open(ctx context.Context, symbol, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(symbol) || !validName(name) {
		return nil, fmt.Errorf("%w: invalid path %q/%q", ErrNotExist, symbol, name)
	}
	return s.read(path.Join(symbol, name))
}

func (s *DirSource) read(name string) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
