package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/halcyon-labs/pagesmith/internal/aiclient"
	"github.com/halcyon-labs/pagesmith/internal/capability"
	"github.com/halcyon-labs/pagesmith/internal/checkpoint"
	"github.com/halcyon-labs/pagesmith/internal/config"
	"github.com/halcyon-labs/pagesmith/internal/metrics"
	"github.com/halcyon-labs/pagesmith/internal/pipeline"
	"github.com/halcyon-labs/pagesmith/internal/wordpress"
	"github.com/halcyon-labs/pagesmith/internal/writer"
	"github.com/halcyon-labs/pagesmith/pkg/models"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath string
	envFile    string
	campaignID string
	itemIDs    []string
	resumeRun  bool
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pagesmith",
		Short: "Pagesmith - Content Pipeline Orchestrator",
		Long: `Pagesmith drives source topics through a staged content pipeline:
research, authoring, image generation, SEO enrichment, a quality gate,
and publication to WordPress with optional multi-site and syndication
fan-out. Interrupted runs resume from per-item checkpoints.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the content pipeline for a campaign",
		Long: `Run every applicable pipeline stage for the selected campaign items:
1. Duplicate check against the published index
2. Optional topic research
3. Article generation
4. Optional images, author matching, internal links, and schema markup
5. Optional quality gate with bounded regeneration
6. Publish to WordPress, then record and distribute`,
		RunE: runPipeline,
	}

	runCmd.Flags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	runCmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to environment file")
	runCmd.Flags().StringVar(&campaignID, "campaign", "", "Campaign ID to run (required)")
	runCmd.Flags().StringSliceVar(&itemIDs, "item", nil, "Item ID(s) to process (default: all configured items)")
	runCmd.Flags().BoolVar(&resumeRun, "resume", false, "Resume items from their saved checkpoints")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	_ = runCmd.MarkFlagRequired("campaign")

	// Checkpoint management commands
	checkpointCmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage checkpoints",
		Long:  "Manage per-item checkpoints for resuming interrupted pipeline runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all saved checkpoints",
		Long:  "List every (campaign, item) checkpoint the configured backend currently holds",
		RunE:  listCheckpoints,
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect <campaign-id> <item-id>",
		Short: "Inspect a checkpoint",
		Long:  "Display completed stages and timestamps for one item's checkpoint",
		Args:  cobra.ExactArgs(2),
		RunE:  inspectCheckpoint,
	}

	clearCmd := &cobra.Command{
		Use:   "clear <campaign-id> <item-id>",
		Short: "Delete a checkpoint",
		Long:  "Delete one item's checkpoint so its next run starts from scratch",
		Args:  cobra.ExactArgs(2),
		RunE:  clearCheckpoint,
	}

	for _, c := range []*cobra.Command{listCmd, inspectCmd, clearCmd} {
		c.Flags().StringVar(&configPath, "config", "config.toml", "Path to configuration file")
	}

	checkpointCmd.AddCommand(listCmd)
	checkpointCmd.AddCommand(inspectCmd)
	checkpointCmd.AddCommand(clearCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkpointCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runPipeline(cmd *cobra.Command, args []string) error {
	// Load environment variables from file if it exists
	if envFile != "" {
		if err := loadEnvFile(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load env file: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "Loaded env file: %s\n", envFile)
		}
	}

	cfg, secrets, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	campaign, err := cfg.CampaignByID(campaignID)
	if err != nil {
		return err
	}

	items, err := selectItems(cfg, itemIDs)
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	session, err := writer.NewSession(slog.Default(), cfg.Pipeline.RunDir, "")
	if err != nil {
		return fmt.Errorf("failed to create run session: %w", err)
	}

	logger, logFile, err := writer.SetupLogger(session, logLevel)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		if logFile != nil {
			_ = logFile.Sync()
			_ = logFile.Close()
		}
	}()

	logger.Info("Pagesmith starting",
		"version", Version,
		"config", configPath,
		"campaign", campaign.ID,
		"items", len(items),
		"run_dir", session.Dir())

	if err := session.BackupConfig(configPath); err != nil {
		return fmt.Errorf("failed to backup config: %w", err)
	}

	collector := metrics.NewCollector(logger)
	if cfg.Pipeline.MetricsAddr != "" {
		go func() {
			logger.Info("Metrics endpoint listening", "addr", cfg.Pipeline.MetricsAddr)
			if err := http.ListenAndServe(cfg.Pipeline.MetricsAddr, promhttp.Handler()); err != nil {
				logger.Warn("Metrics endpoint stopped", "error", err)
			}
		}()
	}

	apiClient := aiclient.NewClient(logger)
	apiClient.SetMetricsCollector(collector)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close checkpoint store", "error", err)
		}
	}()

	caps := capability.NewSet(cfg, secrets, apiClient, logger)
	site, err := buildSite(cfg, secrets, campaign, logger)
	if err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(pipeline.DefaultRegistry(), store, caps, site, logger, collector)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	var contexts []*models.PipelineContext
	var failed int
	for _, item := range items {
		pc, runErr := runItem(ctx, runner, campaign, item, interactive, logger)
		if pc != nil {
			contexts = append(contexts, pc)
			if pc.Publish != nil {
				collector.IncPostPublished(pc.Publish.Status)
			}
			if pc.Content != nil {
				if path, err := session.WriteArticle(pc); err != nil {
					logger.Warn("Failed to export article", "item", item.ID, "error", err)
				} else {
					logger.Debug("Article exported", "path", path)
				}
			}
		}
		if runErr != nil {
			if errors.Is(runErr, context.Canceled) {
				logger.Warn("Run interrupted, remaining items skipped",
					"resume_command", fmt.Sprintf("pagesmith run --campaign %s --resume", campaign.ID))
				break
			}
			failed++
			logger.Error("Item failed", "item", item.ID, "error", runErr)
		}
	}

	if path, err := session.WriteSummary(contexts); err != nil {
		logger.Warn("Failed to write run summary", "error", err)
	} else {
		logger.Info("Run summary written", "path", path)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted (resume with --resume)")
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d items failed", failed, len(items))
	}

	logger.Info("All items processed",
		"campaign", campaign.ID,
		"items", len(items),
		"run_dir", session.Dir())
	return nil
}

// runItem drives a single item through the pipeline with a terminal
// progress bar when stdout is a TTY.
func runItem(ctx context.Context, runner *pipeline.Runner, campaign *models.Campaign, item models.SourceItem, interactive bool, logger *slog.Logger) (*models.PipelineContext, error) {
	opts := pipeline.Options{Resume: resumeRun}

	var bar *progressbar.ProgressBar
	if interactive {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription(fmt.Sprintf("[%s] %s", campaign.ID, item.Topic)),
			progressbar.OptionSetWriter(os.Stdout),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetPredictTime(false),
		)
		opts.Progress = func(p models.PipelineProgress) {
			_ = bar.Set(int(p.Percentage))
			if p.CurrentStage != "" {
				bar.Describe(fmt.Sprintf("[%s] %s (%s)", campaign.ID, item.Topic, p.CurrentStage))
			}
		}
	} else {
		opts.Progress = func(p models.PipelineProgress) {
			logger.Info("Progress",
				"item", item.ID,
				"stage", p.CurrentStage,
				"completed", p.CompletedStages,
				"total", p.TotalStages,
				"status", p.Status)
		}
	}

	pc, err := runner.Run(ctx, campaign, item, opts)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	return pc, err
}

func selectItems(cfg *config.Config, ids []string) ([]models.SourceItem, error) {
	if len(ids) == 0 {
		if len(cfg.Items) == 0 {
			return nil, fmt.Errorf("no items configured")
		}
		return cfg.Items, nil
	}
	items := make([]models.SourceItem, 0, len(ids))
	for _, id := range ids {
		item, err := cfg.ItemByID(id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func buildSite(cfg *config.Config, secrets *config.Secrets, campaign *models.Campaign, logger *slog.Logger) (*capability.Site, error) {
	if secrets.WordPressPassword == "" {
		return nil, fmt.Errorf("WORDPRESS_APP_PASSWORD environment variable must be set")
	}

	site := &capability.Site{
		ID:        cfg.WordPress.SiteID,
		Primary:   wordpress.NewClient(cfg.WordPress.BaseURL, cfg.WordPress.Username, secrets.WordPressPassword, logger),
		Secondary: make(map[string]*wordpress.Client),
	}
	for _, sc := range cfg.Sites {
		site.Secondary[sc.SiteID] = wordpress.NewClient(sc.BaseURL, sc.Username, secrets.WordPressPassword, logger)
	}

	if campaign.SiteID != "" && campaign.SiteID != site.ID {
		if _, ok := site.Secondary[campaign.SiteID]; !ok {
			return nil, fmt.Errorf("campaign %s references unknown site %q", campaign.ID, campaign.SiteID)
		}
	}
	return site, nil
}

// openStore builds the checkpoint store from the configured backend
func openStore(cfg *config.Config, logger *slog.Logger) (*checkpoint.Store, error) {
	var repo checkpoint.Repository
	var err error
	switch cfg.Pipeline.CheckpointBackend {
	case "sqlite":
		repo, err = checkpoint.NewSQLiteRepository(cfg.Pipeline.CheckpointPath)
	default:
		repo, err = checkpoint.NewFileRepository(cfg.Pipeline.CheckpointDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint backend: %w", err)
	}

	ttl := time.Duration(cfg.Pipeline.CheckpointTTLHours) * time.Hour
	return checkpoint.NewStore(repo, ttl, cfg.Pipeline.EnableCheckpointing, logger), nil
}

// loadEnvFile loads KEY=VALUE pairs from a file into the environment
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = trimQuotes(strings.TrimSpace(value))
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// listCheckpoints prints every saved checkpoint as a table
func listCheckpoints(cmd *cobra.Command, args []string) error {
	logger := quietLogger()
	cfg, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	infos, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list checkpoints: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("No checkpoints found.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Campaign", "Item", "Completed Stages", "Updated", "Age"})
	for _, info := range infos {
		t.AppendRow(table.Row{
			info.CampaignID,
			info.ItemID,
			strings.Join(info.CompletedStages, ", "),
			info.UpdatedAt.Format("2006-01-02 15:04:05"),
			info.Age,
		})
	}
	t.Render()
	return nil
}

// inspectCheckpoint displays detailed information about one checkpoint
func inspectCheckpoint(cmd *cobra.Command, args []string) error {
	logger := quietLogger()
	cfg, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	info, err := store.Info(args[0], args[1])
	if err != nil {
		return err
	}
	if info == nil {
		fmt.Printf("No checkpoint for campaign %q item %q.\n", args[0], args[1])
		return nil
	}

	fmt.Printf("Checkpoint for campaign %q item %q\n", info.CampaignID, info.ItemID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Run ID:      %s\n", info.RunID)
	fmt.Printf("Created At:  %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated At:  %s\n", info.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Age:         %s\n", info.Age)
	fmt.Println()
	fmt.Println("Completed stages:")
	if len(info.CompletedStages) == 0 {
		fmt.Println("  (none)")
	} else {
		for _, id := range info.CompletedStages {
			fmt.Printf("  - %s\n", id)
		}
	}
	fmt.Println()
	fmt.Printf("Resume with: pagesmith run --campaign %s --item %s --resume\n", info.CampaignID, info.ItemID)
	return nil
}

// clearCheckpoint deletes one checkpoint
func clearCheckpoint(cmd *cobra.Command, args []string) error {
	logger := quietLogger()
	cfg, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if !store.Has(args[0], args[1]) {
		fmt.Printf("No checkpoint for campaign %q item %q.\n", args[0], args[1])
		return nil
	}
	if err := store.Clear(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	fmt.Printf("Cleared checkpoint for campaign %q item %q.\n", args[0], args[1])
	return nil
}

// quietLogger suppresses info noise for the short-lived checkpoint commands
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
