package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rasim-gh/botctl/internal/buildinfo"
	"github.com/rasim-gh/botctl/pkg/backend/journal"
	"github.com/rasim-gh/botctl/pkg/config"
	"github.com/rasim-gh/botctl/pkg/lifecycle"
	"github.com/rasim-gh/botctl/pkg/session"
	tuimodel "github.com/rasim-gh/botctl/pkg/tui/model"
	"github.com/rasim-gh/botctl/pkg/viewer"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "botctl",
	Short: "Operator console for the dnsbot systemd service",
	Long:  "Botctl installs, updates, and inspects the dnsbot deployment: an interactive menu over systemd and the journal.",
	RunE:  runMenu,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "botctl.yaml", "path to botctl.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig falls back to the stock configuration when no file exists, so
// botctl works out of the box on a standard dnsbot host.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %v", configPath, errs[0])
	}
	return cfg, nil
}

func viewerOptions(cfg *config.Config) viewer.Options {
	return viewer.Options{
		TailLines:   cfg.Logs.TailLines,
		ExportLines: cfg.Logs.ExportLines,
		ExportDir:   cfg.Logs.ExportDir,
		Pager:       viewer.CommandPager{Command: cfg.Logs.Pager},
	}
}

func newManager(cfg *config.Config, logger *slog.Logger) *lifecycle.Manager {
	return lifecycle.NewManager(cfg, lifecycle.ExecRunner{}, logger)
}

// --- Root: interactive menu ---

func runMenu(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	backend := journal.New(logger)
	mgr := newManager(cfg, logger)

	in := bufio.NewScanner(os.Stdin)
	out := cmd.OutOrStdout()

	for {
		fmt.Fprintf(out, "\n=== botctl · %s ===\n", cfg.Service.Unit)
		fmt.Fprintln(out, " 1) install")
		fmt.Fprintln(out, " 2) update")
		fmt.Fprintln(out, " 3) uninstall")
		fmt.Fprintln(out, " 4) status")
		fmt.Fprintln(out, " 5) logs")
		fmt.Fprintln(out, " q) quit")
		fmt.Fprint(out, "> ")

		if !in.Scan() {
			return nil
		}
		choice := strings.TrimSpace(in.Text())

		var err error
		switch choice {
		case "1":
			err = mgr.Install(cmd.Context())
		case "2":
			err = mgr.Update(cmd.Context())
		case "3":
			err = mgr.Uninstall(cmd.Context())
		case "4":
			err = printStatus(cmd.Context(), out, backend, cfg.Service.Unit)
		case "5":
			ctrl := session.New(backend, os.Stdin, out, viewerOptions(cfg), logger)
			err = ctrl.Run(cmd.Context(), cfg.Service.Filter)
		case "q", "":
			return nil
		default:
			fmt.Fprintln(out, "✖ invalid selection")
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "✖ %v\n", err)
		}
	}
}

func printStatus(ctx context.Context, out io.Writer, backend *journal.Backend, unit string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	state, err := backend.ControlStatus(ctx, unit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", unit, state)
	return nil
}

// --- Logs ---

var logsFilter string

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Explore journal output for the managed unit",
	Long:  "Resolves a unit by keyword, then opens the interactive log menu (tail, follow, page, export).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		filter := cfg.Service.Filter
		if logsFilter != "" {
			filter = logsFilter
		}

		logger := newLogger()
		ctrl := session.New(journal.New(logger), os.Stdin, cmd.OutOrStdout(), viewerOptions(cfg), logger)
		return ctrl.Run(cmd.Context(), filter)
	},
}

func init() {
	logsCmd.Flags().StringVar(&logsFilter, "filter", "", "unit discovery keyword (default from config)")
}

// --- Status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the managed unit's active state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return printStatus(cmd.Context(), cmd.OutOrStdout(), journal.New(newLogger()), cfg.Service.Unit)
	},
}

// --- Lifecycle ---

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Clone the bot, build its venv, and enable the systemd unit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mgr := newManager(cfg, newLogger())
		if err := mgr.Install(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "installed %s (%s)\n", cfg.Service.Unit, mgr.UnitPath())
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Pull the latest bot code and restart the unit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := newManager(cfg, newLogger()).Update(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", cfg.Service.Unit)
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and disable the unit and remove its unit file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := newManager(cfg, newLogger()).Uninstall(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "uninstalled %s\n", cfg.Service.Unit)
		return nil
	},
}

// --- TUI ---

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Full-screen unit browser with live journal output",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app := tuimodel.New(journal.New(newLogger()), cfg.Service.Filter, viewerOptions(cfg))
		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

// --- Config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the botctl.yaml configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default botctl.yaml",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists", configPath)
		}
		if err := config.Save(config.Default(), configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a botctl.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}

		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		errs := config.Validate(cfg)
		if len(errs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", path)
			return nil
		}

		fmt.Fprintf(os.Stderr, "%s: %d error(s)\n", path, len(errs))
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  • %s\n", e)
		}
		return fmt.Errorf("invalid configuration")
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("botctl %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}
