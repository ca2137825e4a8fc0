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
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/transflow/internal/profile"
	"github.com/valpere/transflow/internal/validator"
)

var (
	validateWithRegistry bool
	validateJSON         bool
)

// validation is the outcome for one loaded profile.
type validation struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	ID   string `json:"id"`
	validator.Result
}

var validateCmd = &cobra.Command{
	Use:   "validate [files or directories...]",
	Short: "Validate profiles and their cross-references",
	Long: `Validate loads every profile under the given paths (the configured profiles
directory by default) and checks each one, resolving references against the
loaded set and, with --registry, the profiles stored in the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{cfg.ProfilesDir}
		}
		entries, err := profile.Load(args...)
		if err != nil {
			return err
		}

		indexed := entries
		if validateWithRegistry {
			stored, err := registryEntries(cmd.Context())
			if err != nil {
				return err
			}
			indexed = append(append([]profile.Entry{}, stored...), entries...)
		}
		idx := profile.NewIndex(indexed...)
		logger.Debug("validating profiles", "files", len(entries), "indexed", idx.Len())

		results, err := validateAll(cmd.Context(), entries, idx, cfg.Workers)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if validateJSON {
			if err := writeJSON(out, results); err != nil {
				return err
			}
		} else {
			printValidations(out, results)
		}

		failed := 0
		for _, r := range results {
			if !r.OK() {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d profiles failed validation", failed, len(results))
		}
		return nil
	},
}

// validateAll validates entries concurrently against the shared read-only
// index. Results keep the order of entries.
func validateAll(ctx context.Context, entries []profile.Entry, idx profile.Index, workers int) ([]validation, error) {
	results := make([]validation, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = validation{
				Path:   e.Path,
				Kind:   string(e.Kind),
				ID:     profile.ID(e.Doc),
				Result: validator.ValidateEntry(e, idx),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printValidations(w io.Writer, results []validation) {
	for _, r := range results {
		status := "ok"
		if !r.OK() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-4s %s/%s (%s)\n", status, r.Kind, r.ID, r.Path)
		if len(r.Errors) > 0 {
			fmt.Fprintf(w, "     errors:   %s\n", strings.Join(r.Errors, ", "))
		}
		if len(r.Warnings) > 0 {
			fmt.Fprintf(w, "     warnings: %s\n", strings.Join(r.Warnings, ", "))
		}
	}
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateWithRegistry, "registry", false, "Also resolve references against the profile registry")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print results as JSON")
}
