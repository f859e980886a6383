// Package testrunner runs example programs through a visualizer session and
// compares their output with the expectations written in their headers.
package testrunner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/example/jsviz/hostfn"
	"github.com/example/jsviz/visualizer"
)

type Result int

const (
	Pass Result = iota
	Fail
	Skip
	Error
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Skip:
		return "SKIP"
	case Error:
		return "ERROR"
	}
	return "UNKNOWN"
}

type TestResult struct {
	Path    string
	Result  Result
	Message string
	Steps   int
	Elapsed time.Duration
}

type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  int
	Elapsed time.Duration
}

// OK reports whether nothing failed.
func (s Summary) OK() bool { return s.Failed == 0 && s.Errors == 0 }

const (
	DefaultMaxSteps = 100000
	DefaultTimeout  = 5 * time.Second
)

type Config struct {
	Dir    string
	Filter string
	Limit  int
	// Mode is the step granularity programs are run with.
	Mode visualizer.Mode
	// MaxSteps and Timeout bound one program; zero picks the defaults.
	MaxSteps int
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// Run discovers the .js files under cfg.Dir and runs them in name order.
func Run(cfg Config) ([]TestResult, Summary, error) {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	var files []string
	err := filepath.WalkDir(cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".js") {
			return nil
		}
		rel, _ := filepath.Rel(cfg.Dir, path)
		if cfg.Filter != "" && !strings.Contains(rel, cfg.Filter) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, Summary{}, fmt.Errorf("discovering examples in %s: %w", cfg.Dir, err)
	}
	sort.Strings(files)
	if cfg.Limit > 0 && len(files) > cfg.Limit {
		files = files[:cfg.Limit]
	}

	start := time.Now()
	var results []TestResult
	summary := Summary{Total: len(files)}
	for _, path := range files {
		rel, _ := filepath.Rel(cfg.Dir, path)
		tr := runSingle(cfg, path)
		tr.Path = rel
		results = append(results, tr)

		switch tr.Result {
		case Pass:
			summary.Passed++
		case Fail:
			summary.Failed++
		case Skip:
			summary.Skipped++
		case Error:
			summary.Errors++
		}
		cfg.Logger.Debug().
			Str("path", rel).
			Stringer("result", tr.Result).
			Int("steps", tr.Steps).
			Dur("elapsed", tr.Elapsed).
			Msg(tr.Message)
	}
	summary.Elapsed = time.Since(start)
	return results, summary, nil
}

func runSingle(cfg Config, path string) (res TestResult) {
	source, err := os.ReadFile(path)
	if err != nil {
		return TestResult{Result: Error, Message: "read error: " + err.Error()}
	}
	meta, err := ParseMetadata(string(source))
	if err != nil {
		return TestResult{Result: Error, Message: err.Error()}
	}
	if meta.Skip != "" {
		return TestResult{Result: Skip, Message: meta.Skip}
	}
	mode := cfg.Mode
	if meta.Mode != "" {
		if mode, err = visualizer.ParseMode(meta.Mode); err != nil {
			return TestResult{Result: Error, Message: err.Error()}
		}
	}

	start := time.Now()
	res = TestResult{Result: Pass}
	defer func() { res.Elapsed = time.Since(start) }()

	s, err := visualizer.New(string(source),
		visualizer.WithFunctions(hostfn.Output()),
		visualizer.WithLogger(cfg.Logger),
	)
	if err != nil {
		if meta.Throws != "" && errors.Is(err, visualizer.ErrRestrictedSyntax) && strings.Contains(err.Error(), meta.Throws) {
			return res
		}
		res.Result, res.Message = Error, err.Error()
		return res
	}
	for !s.IsLastStep() {
		if res.Steps >= cfg.MaxSteps {
			res.Result, res.Message = Error, fmt.Sprintf("step limit (%d)", cfg.MaxSteps)
			return res
		}
		if time.Since(start) > cfg.Timeout {
			res.Result, res.Message = Error, fmt.Sprintf("timeout (%s)", cfg.Timeout)
			return res
		}
		if err := s.StepForward(mode); err != nil {
			res.Result, res.Message = Error, err.Error()
			return res
		}
		res.Steps++
	}

	step, err := s.CollectState()
	if err != nil {
		res.Result, res.Message = Error, err.Error()
		return res
	}
	got := make([]string, len(step.Stdout))
	for i, o := range step.Stdout {
		got[i] = o.Content
	}
	want := meta.Expect
	if want == nil {
		want = []string{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		res.Result, res.Message = Fail, "stdout mismatch (-want +got):\n"+diff
		return res
	}

	status := s.Status()
	switch {
	case meta.Throws == "" && status.Kind == visualizer.FinishedException:
		res.Result, res.Message = Fail, "uncaught exception: "+status.Exception
	case meta.Throws != "" && status.Kind != visualizer.FinishedException:
		res.Result, res.Message = Fail, fmt.Sprintf("expected an exception containing %q", meta.Throws)
	case meta.Throws != "" && !strings.Contains(status.Exception, meta.Throws):
		res.Result, res.Message = Fail, fmt.Sprintf("exception %q does not contain %q", status.Exception, meta.Throws)
	}
	return res
}

// Metadata is what a program header declares about its run.
type Metadata struct {
	Description string `yaml:"description"`
	// Expect lists the output lines in order.
	Expect []string `yaml:"expect"`
	// Throws is a substring of the uncaught exception message, or of the
	// restricted syntax error.
	Throws string `yaml:"throws"`
	Mode   string `yaml:"mode"`
	Skip   string `yaml:"skip"`
}

// ParseMetadata reads the leading comment lines of source: "// expect: x"
// adds an output line, "// throws: x" expects an exception, and a YAML
// block between /*--- and ---*/ may set any field.
func ParseMetadata(source string) (Metadata, error) {
	var meta Metadata
	if i := strings.Index(source, "/*---"); i >= 0 {
		j := strings.Index(source[i:], "---*/")
		if j < 0 {
			return meta, errors.New("unterminated /*--- block")
		}
		if err := yaml.Unmarshal([]byte(source[i+5:i+j]), &meta); err != nil {
			return meta, fmt.Errorf("parsing header: %w", err)
		}
	}
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "//") {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(line, "//"))
		switch {
		case strings.HasPrefix(body, "expect:"):
			meta.Expect = append(meta.Expect, strings.TrimSpace(strings.TrimPrefix(body, "expect:")))
		case strings.HasPrefix(body, "throws:"):
			meta.Throws = strings.TrimSpace(strings.TrimPrefix(body, "throws:"))
		}
	}
	return meta, nil
}
