/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/valpere/transflow/internal/parser"
	"github.com/valpere/transflow/internal/profile"
	"github.com/valpere/transflow/internal/store"
)

// openStore opens the profile registry, creating its directory if needed.
func openStore() (*store.Store, error) {
	if dir := filepath.Dir(cfg.DB); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// readInput reads a whole file, or stdin when path is "-".
func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// loadProfileOf loads one profile file and checks that it has the expected
// kind.
func loadProfileOf(path string, kind profile.Kind) (profile.Entry, error) {
	e, err := profile.LoadFile(path)
	if err != nil {
		return e, err
	}
	if e.Kind != kind {
		return e, fmt.Errorf("%s is a %s profile, expected %s", path, e.Kind, kind)
	}
	return e, nil
}

// registryEntries returns every profile stored in the registry.
func registryEntries(ctx context.Context) ([]profile.Entry, error) {
	db, err := openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Entries(ctx)
}

// parserLookup resolves parser references against entries.
func parserLookup(entries []profile.Entry) parser.Lookup {
	byID := make(map[string]profile.Document)
	for _, e := range entries {
		if e.Kind == profile.KindParser {
			byID[profile.ID(e.Doc)] = e.Doc
		}
	}
	return func(id string) (profile.Document, bool) {
		doc, ok := byID[id]
		return doc, ok
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
