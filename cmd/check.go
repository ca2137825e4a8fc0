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
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/transflow/internal/detector"
	"github.com/valpere/transflow/internal/linepolicy"
	"github.com/valpere/transflow/internal/profile"
	"github.com/valpere/transflow/internal/report"
)

var errCheckFailed = errors.New("output rejected by line policy")

var (
	checkPolicyPath string
	checkSourcePath string
	checkOutputPath string
	checkFormat     string
	checkSourceLang string
	checkDetectLang string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check translated output against its source line by line",
	Long: `Check evaluates a translated document against its source with a line policy
profile (strict, retry on mismatch, all checks off by default) and prints a
report. With --detect-lang the output language is verified as well.

The command exits non-zero when the output is rejected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(checkFormat)
		if err != nil {
			return err
		}

		lpCfg := linepolicy.DefaultConfig()
		var policyID string
		if checkPolicyPath != "" {
			entry, err := loadProfileOf(checkPolicyPath, profile.KindPolicy)
			if err != nil {
				return err
			}
			lpCfg = linepolicy.ConfigFromDocument(entry.Doc)
			policyID = profile.ID(entry.Doc)
		}
		if checkSourceLang != "" {
			lpCfg.SourceLang = checkSourceLang
		}

		source, err := readInput(checkSourcePath)
		if err != nil {
			return err
		}
		output, err := readInput(checkOutputPath)
		if err != nil {
			return err
		}

		result := report.Check{
			Policy: policyID,
			Source: checkSourcePath,
			Output: checkOutputPath,
			Result: linepolicy.Evaluate(source, output, lpCfg),
		}

		if checkDetectLang != "" {
			text := output
			if len(result.Result.Adjusted) > 0 {
				text = strings.Join(result.Result.Adjusted, "\n")
			}
			verdict, err := detector.New().Verify(text, checkDetectLang)
			result.Language = &verdict
			if err != nil {
				result.LanguageError = err.Error()
			}
		}

		logger.Debug("line check finished",
			"accepted", result.Result.Accepted,
			"source_lines", result.Result.SourceLines,
			"output_lines", result.Result.OutputLines)

		if err := report.Write(cmd.OutOrStdout(), result, format); err != nil {
			return err
		}
		if !result.Passed() {
			return errCheckFailed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkPolicyPath, "policy", "p", "", "Line policy profile file")
	checkCmd.Flags().StringVarP(&checkSourcePath, "source", "s", "", "Source document (required)")
	checkCmd.Flags().StringVarP(&checkOutputPath, "output", "o", "", "Translated document (required)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Report format: text, json, markdown or html")
	checkCmd.Flags().StringVar(&checkSourceLang, "source-lang", "", "Override the policy source language")
	checkCmd.Flags().StringVar(&checkDetectLang, "detect-lang", "", "Verify the output is in this ISO 639-1 language")

	checkCmd.MarkFlagRequired("source")
	checkCmd.MarkFlagRequired("output")
}
