package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/fingerpick/internal/config"
)

// ValidationIssue is one config problem.
type ValidationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Path   string            `json:"path"`
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
	Config *config.Config    `json:"config,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a config file against the schema",
		Long: `Validate a fingerpick config file.

The file is decoded over the defaults (unknown keys are rejected) and the
result is checked against the embedded CUE schema. Environment overrides are
not applied.

Exit codes:
  0 - Config is valid
  1 - Config is invalid
  2 - Command error (file not found)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if formatter.JSON() {
			_ = formatter.Error("E_FILE_NOT_FOUND", err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "failed to read config", err)
	}
	formatter.VerboseLog("Validating %s (%d bytes)", path, len(data))

	cfg, err := config.Parse(data)
	if err != nil {
		result := ValidationResult{Path: path, Errors: []ValidationIssue{issueFrom(err)}}
		if formatter.JSON() {
			if ferr := formatter.Failure("E_CONFIG_INVALID", "config is invalid", result); ferr != nil {
				return ferr
			}
		} else {
			for _, issue := range result.Errors {
				if issue.Field != "" {
					fmt.Fprintln(cmd.OutOrStdout(), pterm.Error.Sprintf("%s: %s", issue.Field, issue.Message))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), pterm.Error.Sprint(issue.Message))
				}
			}
		}
		return NewExitError(ExitFailure, "config is invalid")
	}

	result := ValidationResult{Path: path, Valid: true, Config: &cfg}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), pterm.Success.Sprintf("%s is valid (mode %s, threshold %d)", path, cfg.Mode, cfg.Threshold))
	return nil
}

func issueFrom(err error) ValidationIssue {
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		return ValidationIssue{Field: ve.Field, Message: ve.Message}
	}
	return ValidationIssue{Message: err.Error()}
}
