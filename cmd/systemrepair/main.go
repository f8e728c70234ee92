package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"systemrepair/internal/app"
	"systemrepair/internal/cli"
	"systemrepair/internal/config"
	"systemrepair/internal/launcher"
	"systemrepair/internal/logging"
	"systemrepair/internal/maintenance"
	"systemrepair/internal/reporting"
	"systemrepair/internal/system"
)

const AppName = "System Repair Tool"

var opts app.Options

var rootCmd = &cobra.Command{
	Use:           "systemrepair",
	Short:         AppName + " - sequential Windows maintenance",
	Long:          "Runs the Windows maintenance steps in a fixed order, pausing between them, and restarts the computer at the end.",
	Version:       reporting.Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRepair,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the maintenance steps and plans",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var launcherCmd = &cobra.Command{
	Use:   "launcher",
	Short: "Write the batch launcher and its Desktop copy",
	Args:  cobra.NoArgs,
	RunE:  runLauncher,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the effective configuration to a YAML file",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

// exitCode is set by runRepair; cobra only reports errors.
var exitCode = app.ExitSuccess

func init() {
	// Started from Explorer the tool must run, not print a cmd.exe hint.
	cobra.MousetrapHelpText = ""

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to the YAML configuration (default: "+config.DefaultFileName+" next to the executable)")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Mirror the log to the console")

	rootCmd.PersistentFlags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "Log every action without changing the system")
	rootCmd.PersistentFlags().BoolVarP(&opts.Yes, "yes", "y", false, "Do not pause between steps")
	rootCmd.PersistentFlags().StringVar(&opts.Plan, "plan", "", "Maintenance plan to run ("+strings.Join(maintenance.ListPlanNames(), "/")+")")
	rootCmd.PersistentFlags().StringSliceVar(&opts.Skip, "skip", nil, "Step IDs to skip, see 'list'")
	rootCmd.PersistentFlags().StringVar(&opts.Profile, "profile", "", "Run profile ("+strings.Join(config.Profiles(), "/")+")")
	rootCmd.PersistentFlags().BoolVar(&opts.NoRestart, "no-restart", false, "Do not restart the computer at the end")
	rootCmd.PersistentFlags().BoolVar(&opts.NoElevate, "no-elevate", false, "Fail instead of requesting administrator rights when not elevated")

	listCmd.Flags().Bool("plans", false, "Show only the plans")

	configCmd.Flags().StringP("output", "o", "", "Destination file (default: "+config.DefaultFileName+" next to the executable)")

	rootCmd.AddCommand(listCmd, launcherCmd, configCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	application, err := app.NewApp(opts)
	if err != nil {
		return err
	}
	defer application.Close()
	logger := application.Logger()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Log("WARN", "Received signal, stopping after the current step", "signal", sig.String())
			fmt.Printf("\n[INFO] Received %s, stopping after the current step...\n", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	exitCode = application.Run(ctx)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if plansOnly, _ := cmd.Flags().GetBool("plans"); !plansOnly {
		if err := cli.ListSteps(out); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return cli.ListPlans(out)
}

func runLauncher(cmd *cobra.Command, args []string) error {
	paths, err := system.ResolvePaths()
	if err != nil {
		return err
	}
	cfg, err := app.LoadConfig(opts, paths)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger, err := logging.NewEnterpriseLogger(cfg, opts.Verbose)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Close()

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	console := cli.NewConsole(os.Stdin, cmd.OutOrStdout(), true)
	_, _, err = launcher.New(cfg.Launcher, exe, paths.Desktop, logger, console).Write()
	return err
}

func runConfig(cmd *cobra.Command, args []string) error {
	paths, err := system.ResolvePaths()
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	written, err := app.ExportConfig(opts, paths, output)
	if err != nil {
		return fmt.Errorf("export configuration: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", written)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(app.ExitError)
	}
	os.Exit(exitCode)
}
