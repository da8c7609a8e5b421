package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/ruleast/pkg/ruleast"
)

const combineExamples = `  # OR the department rules together, then AND the rest:
  ruleast combine "department = 'Sales'" "age > 30" "department = 'Marketing'"

  # Group on a different term:
  ruleast combine "role = 'admin'" "role = 'owner'" "age > 30" --group-term role`

type CombineArgs struct {
	*RootArgs

	Output    string
	GroupTerm string
	Strict    bool
}

func NewCombineArgs(rootArgs *RootArgs) *CombineArgs {
	return &CombineArgs{
		RootArgs: rootArgs,
	}
}

func (ca *CombineArgs) AddFlags(cmd *cobra.Command) {
	addOutputFlag(cmd, &ca.Output)
	cmd.Flags().StringVar(&ca.GroupTerm, "group-term", ruleast.DefaultGroupTerm,
		"Rules whose text contains this term are OR-ed together")
	cmd.Flags().BoolVar(&ca.Strict, "strict", false, "Reject unbalanced parentheses")
}

func NewCombineCmd(ca *CombineArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "combine <rule> <rule>...",
		Short:   "Combine several rules into one AST",
		Example: combineExamples,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []ruleast.CombineOption{ruleast.WithGroupTerm(ca.GroupTerm)}
			if ca.Strict {
				opts = append(opts, ruleast.WithParseOptions(ruleast.WithStrictParens()))
			}

			tree, err := ruleast.Combine(args, opts...)
			if err != nil {
				return err
			}

			slog.Debug("combined rules",
				slog.Int("sources", len(args)),
				slog.String("group_term", ca.GroupTerm),
			)

			return writeTree(cmd.OutOrStdout(), tree, ca.Output)
		},
	}
	ca.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}
