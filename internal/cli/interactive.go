package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/dgallion1/statutefinder/internal/citation"
	"github.com/dgallion1/statutefinder/internal/parser"
	"github.com/dgallion1/statutefinder/internal/pipeline"
	"github.com/dgallion1/statutefinder/internal/report"
)

// ErrNoPath is returned when the interactive prompt receives an empty path.
var ErrNoPath = errors.New("no file path provided")

var rule = strings.Repeat("=", 70)

func (a *app) runInteractive(in io.Reader, out io.Writer) error {
	r := bufio.NewReader(in)
	ok, bad := a.marks()

	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "STATUTE CROSS-REFERENCE FINDER")
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "\nThis program analyzes legal documents to find and catalog all")
	fmt.Fprintln(out, "statute references, including:")
	fmt.Fprintln(out, "  • U.S. Code (USC) citations")
	fmt.Fprintln(out, "  • Code of Federal Regulations (CFR)")
	fmt.Fprintln(out, "  • State code references")
	fmt.Fprintln(out, "  • Public law references")
	fmt.Fprintln(out, "  • Section references")
	fmt.Fprintln(out, "\nThe program will generate a comprehensive report showing:")
	fmt.Fprintln(out, "  • Total number of references found")
	fmt.Fprintln(out, "  • Unique citations by type")
	fmt.Fprintln(out, "  • Cross-reference map with context")
	fmt.Fprintln(out, "  • Detailed location information")

	fmt.Fprintln(out, "\n"+rule)
	fmt.Fprintln(out, "SYSTEM CHECK")
	fmt.Fprintln(out, rule)
	for _, c := range a.loader.Capabilities() {
		status := ok("✓ Available")
		if !c.Available {
			status = bad("✗ Not available - " + c.Detail)
		}
		fmt.Fprintf(out, "%s support (%s): %s\n", strings.ToUpper(string(c.Format)), strings.Join(c.Extensions, ", "), status)
	}
	fmt.Fprintln(out, "\n"+rule)

	path := prompt(r, out, "\nEnter the path to your document ("+strings.Join(parser.SupportedExtensions(), ", ")+"): ")
	path = strings.Trim(strings.Trim(path, `"`), `'`)
	if path == "" {
		fmt.Fprintln(out, "\nError: No file path provided. Exiting.")
		return ErrNoPath
	}

	fmt.Fprintln(out, "\n"+rule)
	fmt.Fprintln(out, "PROCESSING DOCUMENT...")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "File: %s\n", path)

	analysis, err := a.analyzeFile(context.Background(), path)
	if err != nil {
		printLoadError(out, bad, path, err)
		return nil
	}

	shown, err := report.NewText(a.color).Render(analysis)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\n"+shown)

	fmt.Fprintln(out, "\n"+rule)
	answer := strings.ToLower(prompt(r, out, "\nWould you like to save this report to a file? (yes/no): "))
	if answer == "yes" || answer == "y" {
		outputFile := prompt(r, out, "Enter output filename (default: "+report.DefaultFilename+"): ")
		if outputFile == "" {
			outputFile = report.DefaultFilename
		}
		plain, err := report.NewText(false).Render(analysis)
		if err == nil {
			err = os.WriteFile(outputFile, []byte(plain), 0o644)
		}
		if err != nil {
			fmt.Fprintln(out, bad(fmt.Sprintf("\n✗ Unexpected error: %v", err)))
			fmt.Fprintln(out, "Please check your file and try again.")
			return nil
		}
		fmt.Fprintln(out, ok("\n✓ Report saved to: "+outputFile))
	}

	fmt.Fprintln(out, "\nAnalysis complete!")
	return nil
}

// analyzeFile loads path, analyses it and archives the result when an
// archive is configured. Archive failures are logged, not returned.
func (a *app) analyzeFile(ctx context.Context, path string) (*citation.Analysis, error) {
	doc, err := a.loader.Load(path)
	if err != nil {
		return nil, err
	}
	analysis := a.analyzer.Analyze(doc.Text)
	a.log.Debug("analyzed document", "path", path, "format", doc.Format, "total", analysis.TotalReferences)

	if a.archive != nil {
		if _, err := a.archive.Save(ctx, path, pipeline.ContentHashHex([]byte(doc.Text)), analysis); err != nil {
			a.log.Warn("archive write failed", "path", path, "error", err)
		}
	}
	return analysis, nil
}

func printLoadError(out io.Writer, bad func(a ...any) string, path string, err error) {
	switch {
	case errors.Is(err, parser.ErrNotFound):
		fmt.Fprintln(out, bad(fmt.Sprintf("\n✗ Error: File not found - '%s'", path)))
		fmt.Fprintln(out, "Please check the file path and try again.")
	case errors.Is(err, parser.ErrUnsupportedFormat), errors.Is(err, parser.ErrMissingCapability),
		errors.Is(err, parser.ErrExtractionFailure):
		fmt.Fprintln(out, bad(fmt.Sprintf("\n✗ Error: %v", err)))
	default:
		fmt.Fprintln(out, bad(fmt.Sprintf("\n✗ Unexpected error: %v", err)))
		fmt.Fprintln(out, "Please check your file and try again.")
	}
}

// prompt writes question and returns the trimmed answer. EOF reads as empty.
func prompt(r *bufio.Reader, out io.Writer, question string) string {
	fmt.Fprint(out, question)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

// marks returns sprint funcs for success and failure lines.
func (a *app) marks() (ok, bad func(a ...any) string) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	if a.color {
		green.EnableColor()
		red.EnableColor()
	} else {
		green.DisableColor()
		red.DisableColor()
	}
	return green.SprintFunc(), red.SprintFunc()
}
