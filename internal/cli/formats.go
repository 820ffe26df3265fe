package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported input formats and whether they are available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()
		a.printFormats(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func (a *app) printFormats(out io.Writer) {
	ok, bad := a.marks()
	fmt.Fprintf(out, "%-10s %-20s %-10s %s\n", "FORMAT", "EXTENSIONS", "STATUS", "DETAIL")
	for _, c := range a.loader.Capabilities() {
		status := ok(fmt.Sprintf("%-10s", "available"))
		if !c.Available {
			status = bad(fmt.Sprintf("%-10s", "disabled"))
		}
		fmt.Fprintf(out, "%-10s %-20s %s %s\n", c.Format, strings.Join(c.Extensions, ","), status, c.Detail)
	}
}
