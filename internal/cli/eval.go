package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ruleast/pkg/ruleast"
)

const evalExamples = `  # Evaluate a rule text against a record:
  ruleast eval --rule "age > 30 AND department = 'Sales'" --data '{"age": 35, "department": "Sales"}'

  # Evaluate a stored AST document:
  ruleast eval --ast rule.yaml --data '{"salary": 60000}'

  # Read the record from stdin:
  echo '{"age": 22}' | ruleast eval --rule "age < 25" --data -`

var ErrNoRecord = errors.New("record must be a JSON object")

type EvalArgs struct {
	*RootArgs

	Rule    string
	ASTPath string
	Data    string
	Strict  bool
}

func NewEvalArgs(rootArgs *RootArgs) *EvalArgs {
	return &EvalArgs{
		RootArgs: rootArgs,
	}
}

func (ea *EvalArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ea.Rule, "rule", "", "Rule text to evaluate")
	cmd.Flags().StringVar(&ea.ASTPath, "ast", "", "Path to an AST document (.json, .yaml)")
	cmd.Flags().StringVar(&ea.Data, "data", "", "Record as a JSON object, or - to read stdin")
	cmd.Flags().BoolVar(&ea.Strict, "strict", false, "Reject unbalanced parentheses in --rule")

	cmd.MarkFlagsMutuallyExclusive("rule", "ast")
	cmd.MarkFlagsOneRequired("rule", "ast")

	err := cmd.MarkFlagRequired("data")
	if err != nil {
		panic(fmt.Errorf("mark data flag: %w", err))
	}

	err = cmd.MarkFlagFilename("ast", "json", "yaml", "yml")
	if err != nil {
		panic(fmt.Errorf("mark ast flag: %w", err))
	}
}

func NewEvalCmd(ea *EvalArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "eval",
		Short:   "Evaluate a rule against a record and print true or false",
		Example: evalExamples,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tree, err := ea.tree()
			if err != nil {
				return err
			}

			record, err := readRecord(ea.Data, cmd.InOrStdin())
			if err != nil {
				return err
			}

			result, err := ruleast.Evaluate(tree, record)
			if err != nil {
				return err
			}

			slog.Debug("rule evaluated",
				slog.String("rule", tree.String()),
				slog.Bool("result", result),
			)

			_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
			return err
		},
	}
	ea.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

func (ea *EvalArgs) tree() (*ruleast.Node, error) {
	if ea.ASTPath != "" {
		return readTree(ea.ASTPath)
	}

	var opts []ruleast.ParseOption
	if ea.Strict {
		opts = append(opts, ruleast.WithStrictParens())
	}
	return ruleast.Parse(ea.Rule, opts...)
}

// readRecord decodes a JSON object, keeping numbers as json.Number.
// Conditions still compare them as float64.
func readRecord(data string, stdin io.Reader) (map[string]any, error) {
	var r io.Reader = strings.NewReader(data)
	if data == "-" {
		r = stdin
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if record == nil {
		return nil, ErrNoRecord
	}
	return record, nil
}
