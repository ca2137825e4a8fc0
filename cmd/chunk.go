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

	"github.com/spf13/cobra"

	"github.com/valpere/transflow/internal/chunker"
	"github.com/valpere/transflow/internal/profile"
)

var (
	chunkPolicyPath   string
	chunkInputPath    string
	chunkMode         string
	chunkContextWords int
	chunkJSON         bool
)

// chunkOutput is one unit as printed by the chunk command.
type chunkOutput struct {
	chunker.Unit
	Chars   int    `json:"chars"`
	Context string `json:"context,omitempty"`
}

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split a document into translation units",
	Long: `Chunk splits a document with a chunk profile (or the default legacy policy)
and prints each unit with its line range. With --context-words every unit also
carries the tail of the previous unit, the sliding context a translator
prompt receives.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		policy := chunker.DefaultPolicy()
		if chunkPolicyPath != "" {
			entry, err := loadProfileOf(chunkPolicyPath, profile.KindChunk)
			if err != nil {
				return err
			}
			policy = chunker.PolicyFromDocument(entry.Doc)
		}
		if chunkMode != "" {
			mode := chunker.Mode(chunkMode)
			if mode != chunker.ModeLegacy && mode != chunker.ModeLine {
				return fmt.Errorf("unknown chunk mode %q", chunkMode)
			}
			policy.Mode = mode
		}

		text, err := readInput(chunkInputPath)
		if err != nil {
			return err
		}

		units := chunker.Split(policy, text)
		logger.Debug("document split", "mode", policy.Mode, "units", len(units), "target_chars", policy.TargetChars)

		outputs := make([]chunkOutput, len(units))
		for i, u := range units {
			outputs[i] = chunkOutput{Unit: u, Chars: u.Chars()}
			if chunkContextWords > 0 && i > 0 {
				outputs[i].Context = chunker.ExtractContext(units[i-1].Text, chunkContextWords)
			}
		}

		out := cmd.OutOrStdout()
		if chunkJSON {
			return writeJSON(out, outputs)
		}
		for _, o := range outputs {
			fmt.Fprintf(out, "--- unit %d: lines %d-%d, %d chars\n", o.Index+1, o.StartLine+1, o.EndLine, o.Chars)
			if o.Context != "" {
				fmt.Fprintf(out, "[context] %s\n", o.Context)
			}
			fmt.Fprint(out, o.Text)
			if n := len(o.Text); n == 0 || o.Text[n-1] != '\n' {
				fmt.Fprintln(out)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chunkCmd)

	chunkCmd.Flags().StringVarP(&chunkPolicyPath, "policy", "p", "", "Chunk profile file (default legacy policy when empty)")
	chunkCmd.Flags().StringVarP(&chunkInputPath, "input", "i", "-", "Document file, - for stdin")
	chunkCmd.Flags().StringVar(&chunkMode, "mode", "", "Override the chunk mode (legacy or line)")
	chunkCmd.Flags().IntVar(&chunkContextWords, "context-words", 0, "Attach the last N words of the previous unit")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "Print units as JSON")
}
