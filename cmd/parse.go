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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/transflow/internal/parser"
	"github.com/valpere/transflow/internal/profile"
)

var (
	parseRulePath   string
	parseInputPath  string
	parseProfileDir string
	parsePython     string
	parseJSON       bool
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Run a parser profile over a raw LLM response",
	Long: `Parse decodes a parser profile and applies it to a raw response, printing the
recovered lines. String children of an "any" parser are resolved against the
parser profiles found in --profiles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := loadProfileOf(parseRulePath, profile.KindParser)
		if err != nil {
			return err
		}

		var lookup parser.Lookup
		if parseProfileDir != "" {
			entries, err := profile.Load(parseProfileDir)
			if err != nil {
				return err
			}
			lookup = parserLookup(entries)
		}

		rule, err := parser.FromDocument(entry.Doc, lookup)
		if err != nil {
			return fmt.Errorf("invalid parser profile %s: %w", parseRulePath, err)
		}

		raw, err := readInput(parseInputPath)
		if err != nil {
			return err
		}

		cascade := parser.Cascade{}
		if parsePython != "" {
			cascade.Scripts = pythonRunner{interpreter: parsePython}
		}
		res, err := cascade.Parse(rule, raw)
		if err != nil {
			logger.Debug("parse failed", "rule", profile.ID(entry.Doc), "code", parser.CodeOf(err))
			return err
		}

		out := cmd.OutOrStdout()
		if parseJSON {
			return writeJSON(out, res)
		}
		for _, line := range res.Lines {
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

// pythonHarness loads the script as a module and calls the named function
// with the response text on stdin. A string result is split into lines;
// anything but a string or a list of strings fails the run.
const pythonHarness = `import importlib.util, json, sys
spec = importlib.util.spec_from_file_location("transflow_parser", sys.argv[1])
mod = importlib.util.module_from_spec(spec)
spec.loader.exec_module(mod)
out = getattr(mod, sys.argv[2])(sys.stdin.read())
if isinstance(out, str):
    out = out.splitlines()
if not isinstance(out, (list, tuple)) or not all(isinstance(x, str) for x in out):
    sys.exit("%s must return a string or a list of strings" % sys.argv[2])
json.dump(list(out), sys.stdout, ensure_ascii=False)
`

// pythonRunner runs python parser scripts in a child interpreter.
type pythonRunner struct {
	interpreter string
}

func (r pythonRunner) RunScript(script, function, text string) ([]string, error) {
	c := exec.Command(r.interpreter, "-c", pythonHarness, script, function)
	c.Stdin = strings.NewReader(text)
	c.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}

	var lines []string
	if err := json.Unmarshal(stdout.Bytes(), &lines); err != nil {
		return nil, fmt.Errorf("script output is not a list of strings: %w", err)
	}
	return lines, nil
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseRulePath, "rule", "r", "", "Parser profile file (required)")
	parseCmd.Flags().StringVarP(&parseInputPath, "input", "i", "-", "Raw response file, - for stdin")
	parseCmd.Flags().StringVar(&parseProfileDir, "profiles", "", "Directory of parser profiles for \"any\" references")
	parseCmd.Flags().StringVar(&parsePython, "python", "", "Python interpreter for python parsers (disabled when empty)")
	parseCmd.Flags().BoolVar(&parseJSON, "json", false, "Print the result as JSON")

	parseCmd.MarkFlagRequired("rule")
}
