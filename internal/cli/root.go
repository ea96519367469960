package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"teammatch/config"
	"teammatch/internal/logger"
	"teammatch/internal/metrics"
)

var (
	cfgFile     string
	cfg         *config.Config
	rootDir     string
	tenant      string
	debug       bool
	jsonLogs    bool
	metricsFile string

	log     *zap.Logger
	metricM *metrics.Manager
)

var rootCmd = &cobra.Command{
	Use:   "teammatch",
	Short: "Match teams and employees to projects with hybrid semantic scoring",
	Long: `teammatch embeds employee profiles and project descriptions, then ranks
teams for a project with a fixed blend of embedding similarity, skill coverage,
experience match and team balance.

Example usage:
  teammatch import ./data               # Load YAML datasets and embed them
  teammatch rank --project 3 --top-k 5  # Best teams for project 3
  teammatch match --employee 7          # Best projects for employee 7`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if err := config.ValidateTenant(tenant); err != nil {
			return err
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if debug {
			cfg.Logging.Level = "debug"
		}
		if jsonLogs {
			cfg.Logging.JSON = true
		}
		if metricsFile != "" {
			cfg.Metrics.File = metricsFile
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log, err = logger.New(cfg.Logging.JSON, cfg.Logging.Level)
		if err != nil {
			return fmt.Errorf("creating a logger: %w", err)
		}
		metricM = metrics.NewManager(metrics.WithNamespace(cfg.Metrics.Namespace))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer log.Sync() //nolint:errcheck
		if err := metricM.WriteTextfile(cfg.Metrics.File); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		return nil
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./teammatch.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "workspace directory (default is current directory)")
	rootCmd.PersistentFlags().StringVarP(&tenant, "tenant", "t", config.DefaultTenant, "tenant whose data to open")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "log as JSON")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics here after the command")
}
