package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"hastingtx/cache"
	"hastingtx/config"
	"hastingtx/core/catalog"
	"hastingtx/db"
	"hastingtx/logger"
	"hastingtx/storage"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Output formats for list commands.
const (
	formatTable = "table"
	formatJSON  = "json"
)

var (
	cfg          *config.Config
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:           "hastingtx",
	Short:         "HastingTX music catalog",
	Long:          `Manage the HastingTX music catalog: songs, playlists, genres, ratings and catalog maintenance.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		logger.InitLogger(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    cfg.LogMaxSize,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAge,
			Compress:   cfg.LogCompress,
		})
		switch outputFormat {
		case formatTable, formatJSON:
			return nil
		default:
			return fmt.Errorf("unknown --format %q (want table or json)", outputFormat)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatTable, "output format: table or json")
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// session is an open catalog with the resources behind it.
type session struct {
	db      *gorm.DB
	catalog *catalog.Catalog
	closers []func() error
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warn("Failed to release resource", logger.ErrorField(err))
		}
	}
}

// openSession connects to the database and, when enabled, the Redis rating
// cache. A Redis outage degrades to an uncached catalog.
func openSession() (*session, error) {
	gormDB, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	s := &session{db: gormDB}
	s.closers = append(s.closers, func() error { return db.Close(gormDB) })

	summaries := cache.NewNoopSummaryCache()
	if cfg.RedisEnabled {
		client, err := cache.ConnectRedis(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, rating summaries will not be cached", logger.ErrorField(err))
		} else {
			summaries = cache.NewRedisSummaryCache(client, time.Duration(cfg.RedisTTLSecs)*time.Second)
			s.closers = append(s.closers, client.Close)
		}
	}

	s.catalog = catalog.NewFromConfig(gormDB, cfg, summaries)
	return s, nil
}

// withCatalog adapts a catalog action to a cobra RunE.
func withCatalog(fn func(ctx context.Context, cat *catalog.Catalog, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(cmd.Context(), s.catalog, args)
	}
}

// Audio storage sources for orphan detection.
const (
	sourceAuto  = "auto"
	sourceLocal = "local"
	sourceMinio = "minio"
)

// newLister picks the audio storage to enumerate. auto prefers MinIO when it
// is configured.
func newLister(ctx context.Context, source string) (storage.FileLister, error) {
	switch source {
	case sourceLocal:
		return storage.NewLocalLister(cfg.UploadFolder), nil
	case sourceAuto, "":
		if !cfg.MinioConfigured() {
			return storage.NewLocalLister(cfg.UploadFolder), nil
		}
		fallthrough
	case sourceMinio:
		client, err := storage.NewMinioClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage source %q (want auto, local or minio)", source)
	}
}

// ========== Output ==========

func jsonOutput() bool {
	return outputFormat == formatJSON
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

// truncate shortens s to at most n runes for table cells.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatDuration renders seconds as m:ss.
func formatDuration(secs int) string {
	if secs <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// ========== Arguments ==========

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid song id %q", raw)
	}
	return id, nil
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
