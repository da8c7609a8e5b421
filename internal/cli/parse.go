package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ruleast/pkg/ruleast"
)

const parseExamples = `  # Print the AST of a rule as JSON:
  ruleast parse "age > 30 AND department = 'Sales'"

  # Print it as YAML, rejecting unbalanced parentheses:
  ruleast parse "(age > 30 OR salary > 5000)" -o yaml --strict

  # Also check every condition for a supported comparator:
  ruleast parse "age ~ 30" --check`

type ParseArgs struct {
	*RootArgs

	Output string
	Strict bool
	Check  bool
}

func NewParseArgs(rootArgs *RootArgs) *ParseArgs {
	return &ParseArgs{
		RootArgs: rootArgs,
	}
}

func (pa *ParseArgs) AddFlags(cmd *cobra.Command) {
	addOutputFlag(cmd, &pa.Output)
	cmd.Flags().BoolVar(&pa.Strict, "strict", false, "Reject unbalanced parentheses")
	cmd.Flags().BoolVar(&pa.Check, "check", false, "Validate every condition's shape and comparator")
}

func (pa *ParseArgs) parseOptions() []ruleast.ParseOption {
	if pa.Strict {
		return []ruleast.ParseOption{ruleast.WithStrictParens()}
	}
	return nil
}

func NewParseCmd(pa *ParseArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "parse <rule>",
		Short:   "Parse a rule and print its AST",
		Example: parseExamples,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := ruleast.Parse(args[0], pa.parseOptions()...)
			if err != nil {
				return err
			}
			if pa.Check {
				if err := ruleast.Validate(tree); err != nil {
					return fmt.Errorf("check: %w", err)
				}
			}

			slog.Debug("parsed rule",
				slog.Int("conditions", len(tree.Conditions())),
				slog.Int("depth", tree.Depth()),
			)

			return writeTree(cmd.OutOrStdout(), tree, pa.Output)
		},
	}
	pa.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}
