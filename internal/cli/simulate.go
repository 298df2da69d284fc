package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/fingerpick/internal/harness"
)

// SimulateResult is the JSON payload of the simulate command.
type SimulateResult struct {
	Scenario string               `json:"scenario"`
	Pass     bool                 `json:"pass"`
	Errors   []string             `json:"errors,omitempty"`
	Result   string               `json:"result"`
	Trace    []harness.TraceEvent `json:"trace"`
	Final    harness.FinalState   `json:"final"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run one scenario and print its trace",
		Long: `Run a touch scenario on a fake clock and print every intent it produced,
followed by the final machine state.

Exit codes:
  0 - Scenario passed
  1 - An expect clause or assertion failed
  2 - Command error (missing or malformed scenario)

Examples:
  fingerpick simulate ./scenarios/pick_two_of_three.yaml
  fingerpick simulate ./scenarios/team_partition.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSimulate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	formatter.VerboseLog("Loaded %s with %d step(s)", scenario.Name, len(scenario.Steps))

	result, err := harness.Run(scenario, harness.WithLogger(opts.Logger()))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run scenario", err)
	}

	out := SimulateResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Errors:   result.Errors,
		Result:   harness.FormatResult(result.Locked),
		Trace:    result.Trace,
		Final:    result.Final,
	}

	if formatter.JSON() {
		if result.Pass {
			if err := formatter.Success(out); err != nil {
				return err
			}
		} else if err := formatter.Failure("E_SCENARIO_FAILED", "scenario failed", out); err != nil {
			return err
		}
	} else if err := renderSimulation(cmd.OutOrStdout(), out); err != nil {
		return err
	}

	if !result.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

func renderSimulation(w io.Writer, out SimulateResult) error {
	fmt.Fprintln(w, pterm.DefaultSection.Sprint(out.Scenario))

	table, err := TraceTable(out.Trace)
	if err != nil {
		return err
	}
	fmt.Fprint(w, table)

	pending := strings.Join(out.Final.Pending, ", ")
	if pending == "" {
		pending = "none"
	}
	body := pterm.Sprintfln("phase    %s", out.Final.Phase) +
		pterm.Sprintfln("touches  %d", out.Final.Touches) +
		pterm.Sprintfln("pending  %s", pending) +
		pterm.Sprintf("result   %s", out.Result)
	fmt.Fprintln(w, pterm.DefaultBox.WithTitle("final").Sprint(body))

	if out.Pass {
		fmt.Fprintln(w, pterm.Success.Sprint("scenario passed"))
		return nil
	}
	for _, e := range out.Errors {
		fmt.Fprintln(w, pterm.Error.Sprint(e))
	}
	return nil
}

// TraceTable renders a trace as a text table.
func TraceTable(trace []harness.TraceEvent) (string, error) {
	data := pterm.TableData{{"seq", "at", "kind", "detail"}}
	for _, ev := range trace {
		data = append(data, []string{
			strconv.FormatInt(ev.Seq, 10),
			fmt.Sprintf("+%dms", ev.AtMs),
			ev.Kind,
			ev.Detail,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}
