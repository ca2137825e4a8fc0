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
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/transflow/internal/profile"
	"github.com/valpere/transflow/internal/validator"
)

var (
	importForce bool
	listKind    string
	showHistory bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the profile registry",
	Long:  `Import, list, inspect and delete profiles stored in the SQLite registry, and precheck stored pipelines.`,
}

func parseKindArg(name string) (profile.Kind, error) {
	kind, ok := profile.ParseKind(name)
	if !ok {
		return "", fmt.Errorf("unknown profile kind %q", name)
	}
	return kind, nil
}

var profileImportCmd = &cobra.Command{
	Use:   "import <files or directories>...",
	Short: "Validate profiles and store them in the registry",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := profile.Load(args...)
		if err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		stored, err := db.Entries(ctx)
		if err != nil {
			return fmt.Errorf("failed to read registry: %w", err)
		}
		idx := profile.NewIndex(append(stored, entries...)...)

		out := cmd.OutOrStdout()
		rejected := 0
		for _, e := range entries {
			res := validator.ValidateEntry(e, idx)
			if !res.OK() && !importForce {
				rejected++
				fmt.Fprintf(out, "rejected  %s/%s (%s): %s\n", e.Kind, profile.ID(e.Doc), e.Path, strings.Join(res.Errors, ", "))
				continue
			}
			rec, changed, err := db.SaveProfile(ctx, e.Kind, e.Doc)
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", e.Path, err)
			}
			status := "unchanged"
			if changed {
				status = "saved"
			}
			logger.Info("profile imported", "kind", rec.Kind, "id", rec.ID, "revision", rec.Revision, "changed", changed)
			fmt.Fprintf(out, "%-9s %s/%s %s\n", status, rec.Kind, rec.ID, rec.Revision)
			if len(res.Warnings) > 0 {
				fmt.Fprintf(out, "          warnings: %s\n", strings.Join(res.Warnings, ", "))
			}
		}
		if rejected > 0 {
			return fmt.Errorf("%d profiles rejected", rejected)
		}
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		var kind profile.Kind
		if listKind != "" {
			k, err := parseKindArg(listKind)
			if err != nil {
				return err
			}
			kind = k
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.ListProfiles(cmd.Context(), kind)
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}

		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No profiles in registry.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tID\tREVISION\tHASH\tUPDATED")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.Kind, r.ID, r.Revision, r.Hash[:12], r.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <kind> <id>",
	Short: "Print a stored profile as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKindArg(args[0])
		if err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if showHistory {
			history, err := db.History(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), history)
		}
		rec, err := db.GetProfile(cmd.Context(), kind, args[1])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), rec)
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <kind> <id>",
	Short: "Delete a stored profile and its history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKindArg(args[0])
		if err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteProfile(cmd.Context(), kind, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile: %s/%s\n", kind, args[1])
		return nil
	},
}

var profilePrecheckCmd = &cobra.Command{
	Use:   "precheck <pipeline-id>",
	Short: "Check that a stored pipeline can run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		rec, err := db.GetProfile(ctx, profile.KindPipeline, args[0])
		if err != nil {
			return err
		}
		idx, err := db.Index(ctx)
		if err != nil {
			return err
		}

		if err := validator.Precheck(rec.Document, idx); err != nil {
			return err
		}
		res := validator.Validate(string(profile.KindPipeline), rec.Document, idx)
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Pipeline %s is ready (revision %s)\n", rec.ID, rec.Revision)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileImportCmd.Flags().BoolVar(&importForce, "force", false, "Store profiles even when validation fails")
	profileListCmd.Flags().StringVarP(&listKind, "kind", "k", "", "Only list profiles of this kind")
	profileShowCmd.Flags().BoolVar(&showHistory, "history", false, "Print every stored revision")

	profileCmd.AddCommand(profileImportCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profilePrecheckCmd)
}
