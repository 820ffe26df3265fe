// Package cli implements the statutefinder command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgallion1/statutefinder/internal/archive"
	"github.com/dgallion1/statutefinder/internal/citation"
	"github.com/dgallion1/statutefinder/internal/config"
	"github.com/dgallion1/statutefinder/internal/parser"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

var (
	cfgFile  string
	verbose  bool
	noColor  bool
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "statutefinder",
	Short: "Find and cross-reference statute citations in legal documents",
	Long: `statutefinder scans legal documents for statute citations (U.S. Code,
Code of Federal Regulations, state codes, public laws and bare section
references) and reports totals, unique citations and a cross-reference map
with surrounding context.

Run without a subcommand for the interactive prompt.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (STATUTEFINDER_*)
3. Config file (~/.statutefinder/statutefinder.yaml or ./statutefinder.yaml)
4. Defaults`,
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.runInteractive(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "statutefinder %s\n", Version)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.statutefinder/statutefinder.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads config through viper and lets changed flags override it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	bindFlag(v, cmd, "no_color", "no-color")
	bindFlag(v, cmd, "log_level", "log-level")
	bindFlag(v, cmd, "archive_path", "archive")
	bindFlag(v, cmd, "port", "port")

	if verbose && v.ConfigFileUsed() != "" {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}
	return config.Load(v)
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

// app holds what every command needs once config is loaded.
type app struct {
	cfg      config.Config
	loader   *parser.Loader
	analyzer *citation.Analyzer
	archive  *archive.Store
	log      *slog.Logger
	color    bool
}

func newApp(cmd *cobra.Command, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newAppFromConfig(cfg, logOut, !cfg.NoColor && isTerminal(cmd.OutOrStdout()))
}

func newAppFromConfig(cfg config.Config, logOut io.Writer, color bool) (*app, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		loader:   parser.NewLoader(cfg.LoaderOptions()),
		analyzer: citation.NewAnalyzer(reg, citation.WithContextRadius(cfg.ContextRadius)),
		log:      slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.SlogLevel()})),
		color:    color,
	}

	if cfg.ArchivePath != "" {
		store, err := archive.Open(cfg.ArchivePath)
		if err != nil {
			return nil, err
		}
		a.archive = store
	}
	return a, nil
}

func (a *app) Close() {
	if a.archive != nil {
		a.archive.Close()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
