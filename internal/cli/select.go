package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/fingerpick/internal/interaction"
	"github.com/roach88/fingerpick/internal/selection"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	IDs   []int
	Mode  string
	Count int
	Seed  uint64
}

// SelectResult is the outcome of a one-shot selection.
type SelectResult struct {
	Mode     string      `json:"mode"`
	IDs      []int       `json:"ids"`
	Selected []int       `json:"selected,omitempty"`
	Teams    map[int]int `json:"teams,omitempty"`
	Sizes    []int       `json:"team_sizes,omitempty"`
	Seed     uint64      `json:"seed,omitempty"`
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Run one selection without the touch machine",
		Long: `Pick identities or partition them into teams, once.

In pick mode --count identities are selected; in team mode --count is the
number of teams. Rank mode has no algorithm and always fails.

Examples:
  fingerpick select --ids 0,1,2,3 --count 1
  fingerpick select --ids 0,1,2,3,4,5,6,7 --mode team --count 3 --seed 42`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(opts, cmd)
		},
	}

	cmd.Flags().IntSliceVar(&opts.IDs, "ids", nil, "pointer identities (required)")
	_ = cmd.MarkFlagRequired("ids")
	cmd.Flags().StringVar(&opts.Mode, "mode", "pick", "selection mode (pick|team|rank)")
	cmd.Flags().IntVar(&opts.Count, "count", 1, "identities to pick, or teams to form")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "PCG seed; 0 seeds from the clock")

	return cmd
}

func runSelect(opts *SelectOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	mode, err := interaction.ParseMode(opts.Mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --mode", err)
	}
	src := selection.NewSource(opts.Seed)
	result := SelectResult{Mode: mode.String(), IDs: opts.IDs, Seed: opts.Seed}

	switch mode {
	case interaction.ModePick:
		result.Selected, err = selection.PickN(opts.IDs, opts.Count, src)
	case interaction.ModeTeam:
		result.Teams, err = selection.PartitionTeams(opts.IDs, opts.Count, src)
		result.Sizes = selection.TeamSizes(result.Teams, opts.Count)
	default:
		_, err = selection.PickRank(opts.IDs, opts.Count)
	}
	if err != nil {
		var se *selection.Error
		if errors.As(err, &se) {
			if formatter.JSON() {
				_ = formatter.Error(string(se.Code), se.Message, se.Details)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), pterm.Error.Sprint(err.Error()))
			}
		}
		return WrapExitError(ExitFailure, "selection failed", err)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	if mode == interaction.ModePick {
		fmt.Fprintf(w, "selected: %s\n", joinIDs(result.Selected))
		return nil
	}
	members := make(map[int][]int)
	for id, team := range result.Teams {
		members[team] = append(members[team], id)
	}
	for team := 0; team < len(result.Sizes); team++ {
		ids := members[team]
		slices.Sort(ids)
		fmt.Fprintf(w, "team %d: %s\n", team, joinIDs(ids))
	}
	return nil
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}
