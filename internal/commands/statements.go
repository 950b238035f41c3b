package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bankfeed-dev/bankfeed/internal/store"
)

func newStatementsCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "statements",
		Short: "List persisted statements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absDir, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runStatements(absDir, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "repository directory")

	return cmd
}

func runStatements(repoRoot string, out io.Writer) error {
	st, err := store.Open(repoRoot)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tJOURNAL\tLINES\tBALANCE END")
	for _, s := range st.Statements() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Name, s.JournalID, len(st.Lines(s.ID)), s.BalanceEndReal.StringFixed(2))
	}
	return tw.Flush()
}
