package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fingerpick/internal/harness"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Runs int
}

// ReplayResult holds the outcome of replaying one scenario.
type ReplayResult struct {
	Scenario      string `json:"scenario"`
	Runs          int    `json:"runs"`
	Events        int    `json:"events"`
	Result        string `json:"result"`
	Deterministic bool   `json:"deterministic"`
	// FirstDivergence is the 1-based run whose trace first differed.
	FirstDivergence int `json:"first_divergence,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a scenario and verify determinism",
		Long: `Run the same scenario several times and compare the traces byte for byte.

Scenarios with a seed must replay identically; this is how seeded picks
are checked for reproducibility.

Exit codes:
  0 - Every run produced the same trace
  1 - Traces differ between runs
  2 - Command error (missing scenario, bad flags)

Examples:
  fingerpick replay ./scenarios/team_partition.yaml
  fingerpick replay ./scenarios/seeded.yaml --runs 10 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Runs, "runs", 2, "number of runs to compare")
	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Runs < 2 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--runs must be at least 2, got %d", opts.Runs))
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	result := ReplayResult{Scenario: scenario.Name, Runs: opts.Runs, Deterministic: true}
	var first []byte
	for i := 1; i <= opts.Runs; i++ {
		run, err := harness.Run(scenario, harness.WithLogger(opts.Logger()))
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("run %d failed", i), err)
		}
		data, err := harness.MarshalSnapshot(harness.TraceSnapshot{
			Scenario:   scenario.Name,
			Trace:      run.Trace,
			FinalPhase: run.Final.Phase,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to marshal trace", err)
		}
		formatter.VerboseLog("run %d: %d events", i, len(run.Trace))

		if first == nil {
			first = data
			result.Events = len(run.Trace)
			result.Result = harness.FormatResult(run.Locked)
			continue
		}
		if !bytes.Equal(first, data) {
			result.Deterministic = false
			result.FirstDivergence = i
			break
		}
	}

	if formatter.JSON() {
		if result.Deterministic {
			if err := formatter.Success(result); err != nil {
				return err
			}
		} else if err := formatter.Failure("E_NONDETERMINISTIC", "traces differ between runs", result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s: %d run(s), %d event(s), result %s\n", result.Scenario, result.Runs, result.Events, result.Result)
		if result.Deterministic {
			fmt.Fprintln(w, "✓ deterministic")
		} else {
			fmt.Fprintf(w, "✗ run %d diverged from run 1\n", result.FirstDivergence)
		}
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, "traces differ between runs")
	}
	return nil
}
