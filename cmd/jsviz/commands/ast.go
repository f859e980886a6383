package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/jsviz/ast"
	"github.com/example/jsviz/parser"
)

var astCmd = &cobra.Command{
	Use:   "ast <file.js>",
	Short: "Prints the syntax tree of a program as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := readSource(cmd, args[0])
		if err != nil {
			return err
		}
		withText, _ := cmd.Flags().GetBool("text")

		prog, errs := parser.New(source).ParseProgram()
		if len(errs) > 0 {
			return errors.Join(errs...)
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(astNode(prog, prog, withText))
	},
}

// astNode describes n as a mapping of its kind, id, span, optionally its
// text, and its children.
func astNode(prog *ast.Program, n ast.Node, withText bool) *yaml.Node {
	loc := n.Location()
	m := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}
	scalar := func(v string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
	}

	add("kind", scalar(n.Kind().String()))
	add("id", scalar(fmt.Sprint(loc.ID)))
	add("span", scalar(fmt.Sprintf("%s-%s", loc.Start, loc.End)))
	if withText {
		text := prog.Text(n)
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i] + " ..."
		}
		add("text", &yaml.Node{Kind: yaml.ScalarNode, Value: text, Style: yaml.DoubleQuotedStyle})
	}
	if children := ast.Children(n); len(children) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, c := range children {
			seq.Content = append(seq.Content, astNode(prog, c, withText))
		}
		add("children", seq)
	}
	return m
}

func init() {
	AddCommand(astCmd)
	astCmd.Flags().Bool("text", false, "Include the source text of each node")
}
