package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/jsviz/testrunner"
)

var checkCmd = &cobra.Command{
	Use:   "check <dir>",
	Short: "Runs example programs and compares their output",
	Long: `Runs every .js file under dir to the end and compares its output with
the "// expect:" and "// throws:" lines of its header.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		limit, _ := cmd.Flags().GetInt("limit")
		maxSteps, _ := cmd.Flags().GetInt("max-steps")
		verbose, _ := cmd.Flags().GetBool("verbose")

		results, summary, err := testrunner.Run(testrunner.Config{
			Dir:      args[0],
			Filter:   filter,
			Limit:    limit,
			Mode:     stepMode(),
			MaxSteps: maxSteps,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range results {
			if r.Result == testrunner.Pass && !verbose {
				continue
			}
			msg := ""
			if r.Message != "" {
				msg = " " + r.Message
			}
			fmt.Fprintf(out, "%s %s%s\n", paint(r.Result), r.Path, msg)
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "Total:   %d\n", summary.Total)
		fmt.Fprintf(out, "Passed:  %d\n", summary.Passed)
		fmt.Fprintf(out, "Failed:  %d\n", summary.Failed)
		fmt.Fprintf(out, "Skipped: %d\n", summary.Skipped)
		fmt.Fprintf(out, "Errors:  %d\n", summary.Errors)
		fmt.Fprintf(out, "Elapsed: %s\n", summary.Elapsed)

		if !summary.OK() {
			return fmt.Errorf("%d failed, %d errors", summary.Failed, summary.Errors)
		}
		return nil
	},
}

func paint(r testrunner.Result) string {
	switch r {
	case testrunner.Pass:
		return color.GreenString(r.String())
	case testrunner.Fail:
		return color.RedString(r.String())
	case testrunner.Skip:
		return color.YellowString(r.String())
	}
	return color.MagentaString(r.String())
}

func init() {
	AddCommand(checkCmd)
	checkCmd.Flags().String("filter", "", "Only run files whose path contains this")
	checkCmd.Flags().Int("limit", 0, "Maximum number of files to run (0 = all)")
	checkCmd.Flags().Int("max-steps", testrunner.DefaultMaxSteps, "Steps after which a program is stopped")
	checkCmd.Flags().BoolP("verbose", "v", false, "Also list passing files")
}
