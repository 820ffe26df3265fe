package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <citation>",
	Short: "Find where a citation appeared in previously archived documents",
	Long: `History searches the analysis archive for citations containing the given
text, ignoring case. Requires archive_path (or --archive) to be set.

Example:
  statutefinder history "42 USC 1983" --archive history.db`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.runHistory(cmd.Context(), args[0], historyLimit, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive to search")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "maximum occurrences to list")
}

var errNoArchive = errors.New("no archive configured; set archive_path or pass --archive")

func (a *app) runHistory(ctx context.Context, query string, limit int, out io.Writer) error {
	if a.archive == nil {
		return errNoArchive
	}
	if ctx == nil {
		ctx = context.Background()
	}

	hits, err := a.archive.FindCitation(ctx, query, limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintf(out, "No archived occurrences of %q.\n", query)
		return nil
	}

	fmt.Fprintf(out, "%d occurrence(s) of %q:\n", len(hits), query)
	current := ""
	for _, h := range hits {
		if h.DocumentID != current {
			current = h.DocumentID
			fmt.Fprintf(out, "\n%s (analyzed %s)\n", h.Filename, h.AnalyzedAt.Local().Format(time.DateTime))
		}
		fmt.Fprintf(out, "  %s [%s] Position %d: ...%s...\n", h.Citation, h.Family, h.Position, strings.TrimSpace(h.Context))
	}
	return nil
}
