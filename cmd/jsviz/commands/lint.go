package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/jsviz/lint"
)

var lintCmd = &cobra.Command{
	Use:   "lint <file.js>",
	Short: "Reports restricted syntax and questionable code",
	Long: `Checks a program for syntax the stepper rejects (errors) and for
hygiene problems (warnings). Exits non-zero when there are errors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		diags := lint.Lint(source)

		out := cmd.OutOrStdout()
		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if diags == nil {
				diags = []lint.Diagnostic{}
			}
			if err := enc.Encode(diags); err != nil {
				return err
			}
		case "yaml":
			if err := yaml.NewEncoder(out).Encode(diags); err != nil {
				return err
			}
		case "text":
			for _, d := range diags {
				sev := color.YellowString(d.Severity.String())
				if d.Severity == lint.SeverityError {
					sev = color.RedString(d.Severity.String())
				}
				fmt.Fprintf(out, "%s:%d:%d: %s: %s %s\n", args[0], d.Line, d.Column, sev, d.Message, color.New(color.Faint).Sprintf("(%s)", d.Rule))
			}
		default:
			return fmt.Errorf("unknown format %q", format)
		}

		errs := 0
		for _, d := range diags {
			if d.Severity == lint.SeverityError {
				errs++
			}
		}
		logger.Debug().Int("diagnostics", len(diags)).Int("errors", errs).Msg("lint complete")
		if errs > 0 {
			return fmt.Errorf("%s: %d error(s)", args[0], errs)
		}
		return nil
	},
}

func init() {
	AddCommand(lintCmd)
	lintCmd.Flags().StringP("format", "F", "text", "Output format: text, json or yaml")
}
