package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"coursekit/internal/canvas"
	"coursekit/internal/config"
	"coursekit/internal/storage"

	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	canvasURL   string
	canvasToken string
	envPath     string
	configPath  string
	delimiter   string
	dbPath      string
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "coursekit",
		Short:         "Course administration helpers for Canvas LMS",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(0)
			log.SetOutput(cmd.ErrOrStderr())
			if !opts.verbose {
				log.SetOutput(io.Discard)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.canvasURL, "canvas-url", "", "Canvas instance URL (env CANVAS_API_URL)")
	flags.StringVar(&opts.canvasToken, "canvas-token", "", "Canvas API token (env CANVAS_API_TOKEN)")
	flags.StringVar(&opts.envPath, "env", ".env", "Path to a .env file")
	flags.StringVar(&opts.configPath, "config", "coursekit.yaml", "Path to a YAML config file")
	flags.StringVar(&opts.delimiter, "delimiter", "", "Output field delimiter (default \"|\")")
	flags.StringVarP(&opts.dbPath, "db", "d", "coursekit.db", "Path to the local SQLite database")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Print debug logging to stderr")

	rootCmd.AddCommand(
		newCoursesCmd(opts),
		newGroupsCmd(opts),
		newStudentsCmd(opts),
		newAssignmentCmd(opts),
		newAssignmentsCmd(opts),
		newUsersGroupsCmd(opts),
		newBinsCmd(opts),
		newQuickURLsCmd(opts),
		newRunsCmd(opts),
		newMakeDriveArchCmd(opts),
	)
	return rootCmd
}

// loadConfig resolves configuration from every source.
func (o *options) loadConfig(required ...string) (config.Config, error) {
	src := config.DefaultSources(config.Overrides{
		CanvasURL:   o.canvasURL,
		CanvasToken: o.canvasToken,
		Delimiter:   o.delimiter,
	})
	src.EnvPath = o.envPath
	src.YAMLPath = o.configPath
	return config.Resolve(src, required...)
}

// initCanvas resolves configuration and builds an authenticated client.
func (o *options) initCanvas() (*canvas.Client, config.Config, error) {
	cfg, err := o.loadConfig(config.KeyCanvasToken)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return canvas.NewClient(cfg.CanvasURL, cfg.CanvasToken), cfg, nil
}

// initStore initializes the SQLite store.
func (o *options) initStore() (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(o.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}
