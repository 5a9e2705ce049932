package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/dunghn/amlich/internal"
	"github.com/dunghn/amlich/internal/aggregate"
	"github.com/dunghn/amlich/internal/index"
	"github.com/dunghn/amlich/internal/mcpserver"
	"github.com/dunghn/amlich/internal/storage"
	pkgconfig "github.com/dunghn/amlich/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runAggregate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := storage.NewFS(cfg.Data.Path, cfg.FolderMap())
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	year := int(cmd.Int("year"))
	month := int(cmd.Int("month"))
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", month)
	}

	agg := aggregate.New(store, logger)
	rec, err := agg.BuildMonth(ctx, year, month)
	if err != nil {
		return fmt.Errorf("build month %04d-%02d: %w", year, month, err)
	}
	fmt.Printf("merged %d days for %04d-%02d from sources %v\n",
		len(rec.Days), year, month, rec.Summary.Sources)
	return nil
}

func runNormalize(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := storage.NewFS(cfg.Data.Path, cfg.FolderMap())
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	source := cmd.String("source")
	agg := aggregate.New(store, logger)
	n, err := agg.NormalizeSource(ctx, source)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", source, err)
	}
	fmt.Printf("normalized %d records for %s\n", n, source)
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := storage.NewFS(cfg.Data.Path, cfg.FolderMap())
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(store, db).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "amlich",
		Usage:  "Vietnamese lunar calendar pipeline: normalize crawled data, merge sources, serve a read-only API",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server (default)",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "aggregate",
				Usage:  "Normalize and merge all sources into one month file",
				Action: runAggregate,
				Flags: []cli.Flag{
					configFlag,
					&cli.IntFlag{Name: "year", Usage: "Year to aggregate", Required: true},
					&cli.IntFlag{Name: "month", Usage: "Month to aggregate (1-12)", Required: true},
				},
			},
			{
				Name:   "normalize",
				Usage:  "Write normalized files for every raw file of one source",
				Action: runNormalize,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{Name: "source", Usage: "Source id to normalize", Required: true},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve calendar tools over the Model Context Protocol on stdio",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
