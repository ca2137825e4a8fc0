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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/valpere/transflow/internal/probe"
)

var (
	probeModel    string
	adaptMin      int
	adaptMax      int
	adaptStart    int
	adaptWarmup   int
	adaptStreakOK int
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Concurrency probe helpers",
	Long:  `Classify probe outcomes, print the probe request payload and replay observations through the adaptive concurrency limiter.`,
}

var probeClassifyCmd = &cobra.Command{
	Use:   "classify <status-code>...",
	Short: "Classify a batch of HTTP status codes (0 = network failure)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		codes := make([]int, 0, len(args))
		for _, a := range args {
			code, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("invalid status code %q", a)
			}
			codes = append(codes, code)
		}
		fmt.Fprintln(cmd.OutOrStdout(), probe.Classify(codes))
		return nil
	},
}

var probePayloadCmd = &cobra.Command{
	Use:   "payload",
	Short: "Print the probe request payload for a model",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeJSON(cmd.OutOrStdout(), probe.BuildProbePayload(probeModel))
	},
}

var probeAdaptCmd = &cobra.Command{
	Use:   "adapt <observation>...",
	Short: "Replay request outcomes through the adaptive limiter",
	Long: `Each observation is a status code (2xx counts as success, 0 as a network
failure) or a free-form error message. The limit after every observation is
printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := probe.NewAdaptiveLimit(probe.AdaptiveConfig{
			Min:           adaptMin,
			Max:           adaptMax,
			Start:         adaptStart,
			SuccessTarget: adaptStreakOK,
			Warmup:        adaptWarmup,
		})

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "start\t%d\n", limit.Limit())
		for _, obs := range args {
			outcome := "ok"
			if code, err := strconv.Atoi(obs); err == nil {
				if code >= 200 && code <= 299 {
					limit.NoteSuccess()
				} else {
					category := probe.Classify([]int{code})
					limit.NoteFailure(category)
					outcome = string(category)
				}
			} else {
				outcome = string(limit.NoteError(obs))
			}
			fmt.Fprintf(out, "%s\t%s\t%d\n", obs, outcome, limit.Limit())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probePayloadCmd.Flags().StringVarP(&probeModel, "model", "m", "", "Model id (required)")
	probePayloadCmd.MarkFlagRequired("model")

	probeAdaptCmd.Flags().IntVar(&adaptMin, "min", 0, "Minimum limit (default 1)")
	probeAdaptCmd.Flags().IntVar(&adaptMax, "max", 0, "Maximum limit (default 16)")
	probeAdaptCmd.Flags().IntVar(&adaptStart, "start", 0, "Starting limit (default half of max)")
	probeAdaptCmd.Flags().IntVar(&adaptWarmup, "warmup", 0, "Successes that each raise the limit (default 10)")
	probeAdaptCmd.Flags().IntVar(&adaptStreakOK, "success-target", 0, "Consecutive successes per increase after warmup (default 2)")

	probeCmd.AddCommand(probeClassifyCmd)
	probeCmd.AddCommand(probePayloadCmd)
	probeCmd.AddCommand(probeAdaptCmd)
}
