package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"swupdate/internal/common/fsutil"
	"swupdate/pkg/types"
)

// ErrScriptNotFound is returned by Find when the named script is absent.
var ErrScriptNotFound = errors.New("worker script not found")

var scriptExts = map[string]bool{".js": true, ".mjs": true}

// LoadDir scans a directory for worker scripts (*.js, *.mjs) and fingerprints them.
// ID is the file name; Path is the absolute file path. Results are sorted by ID.
func LoadDir(dir string) ([]types.Script, error) {
	abs, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var scripts []types.Script
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !scriptExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		s, err := load(filepath.Join(abs, name))
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].ID < scripts[j].ID })
	return scripts, nil
}

// Find fingerprints a single script in dir by file name.
func Find(dir, name string) (types.Script, error) {
	abs, err := resolveDir(dir)
	if err != nil {
		return types.Script{}, err
	}
	p := filepath.Join(abs, filepath.Base(name))
	if !fsutil.PathExists(p) {
		return types.Script{}, fmt.Errorf("%s: %w", name, ErrScriptNotFound)
	}
	return load(p)
}

func load(p string) (types.Script, error) {
	digest, size, err := fsutil.FileDigest(p)
	if err != nil {
		return types.Script{}, err
	}
	return types.Script{ID: filepath.Base(p), Path: p, Digest: digest, Size: size}, nil
}

func resolveDir(dir string) (string, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("abs path: %w", err)
	}
	return abs, nil
}
