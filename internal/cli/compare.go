package cli

import (
	"github.com/spf13/cobra"
)

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "List what a pass would change without changing it (dry-run)",
		Long: `Walk source and target exactly like a pass and report every copy, replace
and delete it would perform, without touching the target. Directories that
exist only in the source are reported as a single copy.`,
		RunE: runCompare,
	}

	addPathFlags(cmd)
	addOutputFlags(cmd)
	cmd.Flags().StringVar(&passFlags.DiffReport, "diff-report", "", "write planned actions to file")
	cmd.Flags().StringVar(&passFlags.DiffFormat, "diff-format", "", "planned actions report format: human, json")

	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	return runSinglePass(cmd, true)
}
