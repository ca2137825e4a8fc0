package profile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Extensions lists the file extensions Load accepts.
var Extensions = []string{".json", ".yaml", ".yml", ".toml"}

// LoadFile decodes a single profile file. The kind comes from the document's
// "kind" field, falling back to the name of the containing directory.
func LoadFile(path string) (Entry, error) {
	// Keys are taken verbatim; a dotted key must not be split into a path.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Entry{}, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	doc := Document(v.AllSettings())

	kindName := Str(doc, "kind")
	if kindName == "" {
		kindName = filepath.Base(filepath.Dir(path))
	}
	kind, ok := ParseKind(kindName)
	if !ok {
		return Entry{}, fmt.Errorf("cannot determine profile kind of %s", path)
	}
	return Entry{Kind: kind, Path: path, Doc: doc}, nil
}

// Load decodes every profile found at paths. Directories are walked
// recursively; files with unknown extensions inside them are skipped, while
// explicitly named files are always loaded. Entries come back sorted by path.
func Load(paths ...string) ([]Entry, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !hasProfileExt(path) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}
	sort.Strings(files)

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		e, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func hasProfileExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
