package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/jsviz/hostfn"
	"github.com/example/jsviz/visualizer"
)

var traceCmd = &cobra.Command{
	Use:   "trace <file.js>",
	Short: "Runs a program to the end and prints its trace as JSON",
	Long: `Runs the program one step at a time until it ends and prints every step:
stack frames, heap and output. Use "-" to read the program from stdin.
Answers to input() are read line by line from --input, or from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}
		compact, _ := cmd.Flags().GetBool("compact")
		outPath, _ := cmd.Flags().GetString("out")
		inputPath, _ := cmd.Flags().GetString("input")

		var answers io.Reader = cmd.InOrStdin()
		if inputPath != "" {
			f, err := os.Open(inputPath)
			if err != nil {
				return err
			}
			defer f.Close()
			answers = f
		}

		s, err := visualizer.New(source, sessionOptions(hostfn.Output(), hostfn.Input(lineReader(answers)))...)
		if err != nil {
			return err
		}
		tr, err := s.RunToEnd(stepMode())
		if err != nil {
			return err
		}
		logger.Info().
			Str("session", s.ID().String()).
			Int("steps", len(tr.Steps)).
			Stringer("status", s.Status().Kind).
			Msg("trace complete")

		out := cmd.OutOrStdout()
		if outPath != "" {
			f, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		enc := json.NewEncoder(out)
		if !compact {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(tr)
	},
}

// lineReader answers each question with the next line of r.
func lineReader(r io.Reader) func(string) (string, error) {
	sc := bufio.NewScanner(r)
	return func(question string) (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("no answer to %q: %w", question, io.EOF)
		}
		return strings.TrimSpace(sc.Text()), nil
	}
}

func init() {
	AddCommand(traceCmd)
	traceCmd.Flags().Bool("compact", false, "Print the trace on one line")
	traceCmd.Flags().StringP("out", "o", "", "Write the trace to this file instead of stdout")
	traceCmd.Flags().String("input", "", "File holding the answers to input(), one per line")
}
