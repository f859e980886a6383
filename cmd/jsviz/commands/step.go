package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/example/jsviz/hostfn"
	"github.com/example/jsviz/trace"
	"github.com/example/jsviz/visualizer"
)

const stepHelp = `commands:
  n, next     step forward
  b, back     step backward
  m, micro    switch to micro steps
  M, macro    switch to macro steps
  s, state    print the current step as JSON
  r, run      run to the end
  h, help     show this help
  q, quit     leave
an empty line repeats the last command`

var (
	highlight = color.New(color.FgYellow, color.Bold).SprintFunc()
	dim       = color.New(color.Faint).SprintFunc()
	outColor  = color.New(color.FgCyan).SprintFunc()
	errColor  = color.New(color.FgRed).SprintFunc()
)

var stepCmd = &cobra.Command{
	Use:   "step <file.js>",
	Short: "Steps through a program interactively",
	Long:  "Opens a prompt for moving through the program forward and backward.\n\n" + stepHelp,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}

		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)

		histPath := cfg.HistoryPath()
		if histPath != "" {
			if f, err := os.Open(histPath); err == nil {
				_, _ = ln.ReadHistory(f)
				_ = f.Close()
			}
			defer func() {
				if f, err := os.Create(histPath); err == nil {
					_, _ = ln.WriteHistory(f)
					_ = f.Close()
				}
			}()
		}

		ask := func(question string) (string, error) { return ln.Prompt(question + " ") }
		s, err := visualizer.New(source, sessionOptions(hostfn.Output(), hostfn.Input(ask))...)
		if err != nil {
			return err
		}
		r := &repl{out: cmd.OutOrStdout(), session: s, mode: stepMode()}
		return r.loop(ln, cfg.Prompt)
	},
}

type repl struct {
	out     io.Writer
	session *visualizer.Session
	mode    visualizer.Mode
	printed int
}

func (r *repl) loop(ln *liner.State, prompt string) error {
	fmt.Fprintln(r.out, dim("mode "+r.mode.String()+", type h for help"))
	if err := r.show(); err != nil {
		return err
	}
	last := "n"
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			line = last
		} else {
			ln.AppendHistory(line)
		}
		last = line

		quit, err := r.exec(line)
		if err != nil {
			fmt.Fprintln(r.out, errColor(err.Error()))
		}
		if quit {
			return nil
		}
	}
}

func (r *repl) exec(line string) (bool, error) {
	switch line {
	case "q", "quit", "exit":
		return true, nil
	case "h", "help":
		fmt.Fprintln(r.out, stepHelp)
		return false, nil
	case "m", "micro":
		r.mode = visualizer.Micro
		fmt.Fprintln(r.out, dim("mode micro"))
		return false, nil
	case "M", "macro":
		r.mode = visualizer.Macro
		fmt.Fprintln(r.out, dim("mode macro"))
		return false, nil
	case "n", "next":
		if err := r.session.StepForward(r.mode); err != nil {
			return false, err
		}
	case "b", "back":
		if err := r.session.StepBackward(r.mode); err != nil {
			return false, err
		}
	case "r", "run":
		for !r.session.IsLastStep() {
			if err := r.session.StepForward(r.mode); err != nil {
				return false, err
			}
		}
	case "s", "state":
		step, err := r.session.CollectState()
		if err != nil {
			return false, err
		}
		b, err := json.MarshalIndent(step, "", "  ")
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, string(b))
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q, type h for help", line)
	}
	return false, r.show()
}

// show prints the current position, the innermost frame and any output
// not printed yet.
func (r *repl) show() error {
	step, err := r.session.CollectState()
	if err != nil {
		return err
	}
	if len(step.Stdout) < r.printed {
		r.printed = len(step.Stdout)
	}
	for _, o := range step.Stdout[r.printed:] {
		fmt.Fprintf(r.out, "%s %s\n", dim(fmt.Sprintf("[out:%d]", o.Line)), outColor(o.Content))
	}
	r.printed = len(step.Stdout)

	fmt.Fprintf(r.out, "%s %s %s\n", dim(fmt.Sprintf("%d:%d", step.LineStart, step.ColStart)), step.Event, step.FunctionName)
	fmt.Fprintln(r.out, r.excerpt(step))

	if n := len(step.StackFrames); n > 0 {
		frame := step.StackFrames[n-1]
		for _, name := range frame.OrderedLocals {
			fmt.Fprintf(r.out, "  %s = %s\n", name, describe(frame.Locals[name], step.Heap, 0))
		}
		if frame.ReturnValue != nil {
			fmt.Fprintf(r.out, "  %s %s\n", dim("returns"), describe(*frame.ReturnValue, step.Heap, 0))
		}
	}
	if step.ExceptionMessage != nil {
		fmt.Fprintln(r.out, errColor(*step.ExceptionMessage))
	}
	switch status := r.session.Status(); status.Kind {
	case visualizer.FinishedOK:
		fmt.Fprintln(r.out, dim("program finished"))
	case visualizer.FinishedException:
		fmt.Fprintln(r.out, errColor("program finished with an uncaught exception"))
	}
	return nil
}

// excerpt returns the source lines of the step with its span highlighted.
func (r *repl) excerpt(step *trace.Step) string {
	lines := strings.Split(r.session.Source(), "\n")
	if step.LineStart < 1 || step.LineEnd > len(lines) || step.LineStart > step.LineEnd {
		return ""
	}
	var b strings.Builder
	for n := step.LineStart; n <= step.LineEnd; n++ {
		text := lines[n-1]
		from, to := 0, len(text)
		if n == step.LineStart {
			from = min(step.ColStart, len(text))
		}
		if n == step.LineEnd {
			to = min(step.ColEnd, len(text))
		}
		if to < from {
			to = from
		}
		fmt.Fprintf(&b, "%s %s%s%s", dim(fmt.Sprintf("%4d|", n)), text[:from], highlight(text[from:to]), text[to:])
		if n < step.LineEnd {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// describe renders a value on one line, following pointers a few levels.
func describe(v trace.Value, heap map[string]trace.HeapElement, depth int) string {
	switch v.Kind {
	case trace.KindPointer:
	case trace.KindString:
		return strconv.Quote(v.Str)
	case trace.KindNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case trace.KindBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return string(v.Kind)
	}
	elem, ok := heap[v.Ref]
	if !ok {
		return "#" + v.Ref
	}
	if depth >= 2 {
		return fmt.Sprintf("%s#%s", elem.Kind, v.Ref)
	}
	switch elem.Kind {
	case trace.HeapFunction:
		if elem.Name == "" {
			return "function#" + v.Ref
		}
		return "function " + elem.Name
	case trace.HeapArray:
		parts := make([]string, len(elem.Values))
		for i, e := range elem.Values {
			parts[i] = describe(e, heap, depth+1)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	parts := make([]string, len(elem.Entries))
	for i, e := range elem.Entries {
		parts[i] = e.Key + ": " + describe(e.Value, heap, depth+1)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func init() {
	AddCommand(stepCmd)
}
