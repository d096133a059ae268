// Command brpbridge bridges MCP clients to the Bevy Remote Protocol.
// It serves MCP tools over stdio and repairs recoverable payload format
// errors transparently before retrying.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"brpbridge/internal/brp"
	"brpbridge/internal/config"
	"brpbridge/internal/discovery"
	"brpbridge/internal/logging"
	"brpbridge/internal/logs"
	"brpbridge/internal/server"
	"brpbridge/internal/watch"
)

var (
	// Global flags
	configPath string
	verbose    bool
	portFlag   int

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "brpbridge",
	Short: "MCP bridge to the Bevy Remote Protocol",
	Long: `brpbridge exposes a running Bevy application to MCP clients.

It serves one MCP tool per BRP method over stdio. Failed mutations with
recoverable payload format errors are repaired and retried once, so
clients can send the obvious JSON encoding and still succeed.

Run without arguments to start the MCP server.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if portFlag > 0 {
			cfg.BRP.Port = portFlag
		}

		debug := verbose || cfg.Logging.Level == "debug"
		if err := logging.Init(debug, cfg.Logging.File); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP tools over stdio",
	Long: `Starts the MCP server loop on stdin/stdout.

stdout carries only protocol frames; logs go to stderr. The process runs
until stdin closes or it receives SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether a BRP server is responding",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		client := brp.NewClientWithHost(cfg.BRP.Host, cfg.GetBRPTimeout())
		if err := client.CheckConnection(ctx, cfg.BRP.Port); err != nil {
			fmt.Printf("no BRP server on %s:%d: %v\n", cfg.BRP.Host, cfg.BRP.Port, err)
			os.Exit(1)
		}
		fmt.Printf("BRP server responding on %s:%d\n", cfg.BRP.Host, cfg.BRP.Port)
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect the bridge's log files",
}

var logsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List log files",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := logs.List(cfg.Logs.Dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Printf("no log files under %s\n", cfg.Logs.Dir)
			return nil
		}
		for _, f := range files {
			fmt.Printf("%s\t%d bytes\t%s\n", f.Name, f.Size, f.Modified.Format(time.RFC3339))
		}
		return nil
	},
}

var (
	readOffset int
	readLimit  int
)

var logsReadCmd = &cobra.Command{
	Use:   "read [filename]",
	Short: "Print lines from a log file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := logs.Read(logPathFor(args[0]), readOffset, readLimit)
		if err != nil {
			return err
		}
		for _, line := range res.Lines {
			fmt.Println(line)
		}
		return nil
	},
}

var logsTailCmd = &cobra.Command{
	Use:   "tail [filename]",
	Short: "Follow a log file until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		err := logs.Tail(ctx, logPathFor(args[0]), func(line string) {
			fmt.Println(line)
		})
		if err == context.Canceled {
			return nil
		}
		return err
	},
}

var cleanupAge string

var logsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete log files older than a duration",
	RunE: func(cmd *cobra.Command, args []string) error {
		maxAge := cfg.GetLogMaxAge()
		if cleanupAge != "" {
			d, err := time.ParseDuration(cleanupAge)
			if err != nil {
				return fmt.Errorf("invalid --older-than duration: %w", err)
			}
			maxAge = d
		}
		removed, err := logs.Cleanup(cfg.Logs.Dir, maxAge)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d log file(s)\n", removed)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func logPathFor(filename string) string {
	return filepath.Join(cfg.Logs.Dir, filepath.Base(filename))
}

// runServe wires the full stack and runs the MCP loop until stdin closes
// or a signal arrives.
func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := brp.NewClientWithHost(cfg.BRP.Host, cfg.GetBRPTimeout())
	engine := discovery.NewEngine(client)
	watches := watch.NewManager(ctx, client, cfg.Logs.Dir)

	srv := server.New(cfg, client, engine, watches, os.Stdin, os.Stdout)

	err := srv.Run(ctx)

	if werr := watches.Shutdown(); werr != nil && werr != context.Canceled {
		logging.Get(logging.CategoryWatch).Warnw("watch shutdown failed", "error", werr)
	}
	if err == context.Canceled {
		return nil
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "brpbridge.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 0, "BRP port override")

	logsReadCmd.Flags().IntVar(&readOffset, "offset", 0, "zero-based first line to print")
	logsReadCmd.Flags().IntVar(&readLimit, "limit", 0, "maximum lines to print (0 for all)")
	logsCleanupCmd.Flags().StringVar(&cleanupAge, "older-than", "", "age cutoff, e.g. 24h")

	logsCmd.AddCommand(logsListCmd)
	logsCmd.AddCommand(logsReadCmd)
	logsCmd.AddCommand(logsTailCmd)
	logsCmd.AddCommand(logsCleanupCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
