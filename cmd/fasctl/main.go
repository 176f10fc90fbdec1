// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/useSafe/File-Allocation-System-2.0/internal/config"
	"github.com/useSafe/File-Allocation-System-2.0/internal/core"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fasctl",
	Short: "Maintenance commands for the File Allocation System",
	Long: `fasctl runs one-off operations against the File Allocation System
database and Redis: schema migrations, signing key generation, seeding the
primordial admin, stack repair and refresh token cleanup.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(genkeysCmd)
	rootCmd.AddCommand(seedAdminCmd)
	rootCmd.AddCommand(renumberCmd)
	rootCmd.AddCommand(pruneTokensCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// stores holds the connections a command opened.
type stores struct {
	cfg   *config.Config
	db    *core.Database
	redis *core.Redis
}

// open loads the config and connects to the database, and to Redis when
// withRedis is set.
func open(ctx context.Context, withRedis bool) (*stores, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	s := &stores{cfg: cfg, db: db}
	if withRedis {
		r, err := core.NewRedis(ctx, cfg.Redis)
		if err != nil {
			//nolint:errcheck // already failing
			_ = db.Close()
			return nil, err
		}
		s.redis = r
	}
	return s, nil
}

func (s *stores) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Warn("redis close error", "error", err)
		}
	}
	if err := s.db.Close(); err != nil {
		slog.Warn("database close error", "error", err)
	}
}
