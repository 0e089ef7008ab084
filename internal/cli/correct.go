package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thebtf/assimilator/pkg/table"
)

var (
	correctFlags clusterFlags
	correctCSV   bool
)

var correctCmd = &cobra.Command{
	Use:   "correct <source.csv> <target.csv>",
	Short: "Rewrite a table's key column to canonical values",
	Long: `Clusters the source table using every non-key column as a reference
column, then rewrites the key column of the target table to the canonical
values and drops rows whose key was already emitted.`,
	Args: cobra.ExactArgs(2),
	RunE: runCorrect,
}

func init() {
	correctFlags.register(correctCmd)
	correctCmd.Flags().BoolVar(&correctCSV, "csv", false, "output as CSV")
	rootCmd.AddCommand(correctCmd)
}

func runCorrect(cmd *cobra.Command, args []string) error {
	source, err := table.LoadCSV(args[0], cfg.Comma())
	if err != nil {
		return err
	}
	target, err := table.LoadCSV(args[1], cfg.Comma())
	if err != nil {
		return err
	}

	f, err := correctFlags.formatter(source)
	if err != nil {
		return err
	}
	corrected, err := f.Correct(target)
	if err != nil {
		return fmt.Errorf("correct %s: %w", args[1], err)
	}

	if correctCSV {
		return corrected.WriteCSV(cmd.OutOrStdout(), cfg.Comma())
	}
	cmd.Print(corrected.String())
	return nil
}
