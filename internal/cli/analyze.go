package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/statutefinder/internal/report"
)

var (
	reportFormat string
	outputPath   string
	archivePath  string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Analyze documents and print a citation report",
	Long: `Analyze loads each file, finds every statute citation and renders a report.

With one file, --output names the report file. With several, --output is a
directory and each report is written as <name>.statutes.<ext>.

Example:
  statutefinder analyze brief.pdf
  statutefinder analyze memo.docx --format json --output memo.json
  statutefinder analyze *.txt --format yaml --output reports/ --archive history.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.runAnalyze(cmd.Context(), args, reportFormat, outputPath, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "report format ("+strings.Join(report.Formats(), ", ")+")")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to a file (or directory for several inputs)")
	analyzeCmd.Flags().StringVar(&archivePath, "archive", "", "SQLite archive to record analyses in")
}

func (a *app) runAnalyze(ctx context.Context, files []string, format, output string, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// Files never get ANSI codes.
	useColor := a.color && output == ""
	renderer, err := report.ForFormat(format, report.Options{Color: useColor})
	if err != nil {
		return err
	}

	multi := len(files) > 1
	if multi && output != "" {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	_, bad := a.marks()
	failed := 0
	for i, path := range files {
		analysis, err := a.analyzeFile(ctx, path)
		if err != nil {
			fmt.Fprintln(errOut, bad(fmt.Sprintf("✗ Error: %s: %v", path, err)))
			failed++
			continue
		}

		rendered, err := renderer.Render(analysis)
		if err != nil {
			return err
		}

		switch {
		case output == "":
			if multi {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "File: %s\n", path)
			}
			fmt.Fprintln(out, rendered)
		default:
			dest := output
			if multi {
				base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				dest = filepath.Join(output, base+".statutes"+renderer.FileExtension())
			}
			if err := os.WriteFile(dest, []byte(rendered+"\n"), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(errOut, "✓ Report saved to: %s\n", dest)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}
