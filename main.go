package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nconklindev/sheetpdf/internal/artifact"
	"github.com/nconklindev/sheetpdf/internal/config"
	"github.com/nconklindev/sheetpdf/internal/converter"
	"github.com/nconklindev/sheetpdf/internal/logging"
	"github.com/nconklindev/sheetpdf/internal/session"
	"github.com/nconklindev/sheetpdf/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	startDir    string
	outputDir   string
	previewRows int
	orientation string
	allColumns  bool
	rejectEmpty bool
	logFile     string
	logLevel    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetpdf",
		Short: "Convert Excel spreadsheets into PDF tables",
		Long: `sheetpdf reads the first sheet of an Excel workbook (.xlsx or .xls),
previews its rows and renders them as a table in a PDF document.

Run without arguments for the interactive file picker.`,
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runTUI,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("sheetpdf %s\ncommit: %s\nbuilt: %s\n", version, commit, date))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&outputDir, "out", "", "Directory for downloaded PDFs (default: next to the input file)")
	flags.IntVar(&previewRows, "rows", converter.PreviewRowLimit, "Number of rows shown in the preview")
	flags.StringVar(&orientation, "orientation", string(converter.OrientationPortrait), "Page orientation: portrait, landscape, auto")
	flags.BoolVar(&allColumns, "all-columns", false, "Keep every header-row column, not just those used by the first row")
	flags.BoolVar(&rejectEmpty, "reject-empty", false, "Fail when the first sheet has no data rows")
	flags.StringVar(&logFile, "log-file", "", "Write logs to this file")
	flags.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.Flags().StringVar(&startDir, "dir", "", "Directory the file picker opens in (default: working directory)")

	rootCmd.AddCommand(newConvertCmd())
	return rootCmd
}

// loadConfig reads .env and SHEETPDF_* variables; flags set on the command line win.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.StartDir = startDir
	}
	if flags.Changed("out") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("rows") {
		cfg.PreviewRows = previewRows
	}
	if flags.Changed("orientation") {
		if cfg.Orientation, err = converter.ParseOrientation(orientation); err != nil {
			return config.Config{}, err
		}
	}
	if flags.Changed("all-columns") {
		cfg.AllColumns = allColumns
	}
	if flags.Changed("reject-empty") {
		cfg.RejectEmpty = rejectEmpty
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal, so logs only go to a file.
	closer, err := logging.Setup(cfg.LogFile, cfg.LogLevel, io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	store, err := artifact.NewStore(cfg.ArtifactDir)
	if err != nil {
		return err
	}
	defer store.Close()

	controller := session.NewController(store)
	defer controller.Close()

	log.Info("starting", "version", version, "dir", cfg.StartDir)

	p := tea.NewProgram(ui.New(cfg, controller, store), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
