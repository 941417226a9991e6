// Package innercity parses command flags and runs the game API service.
package innercity

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/louisbranch/innercity/internal/content"
	"github.com/louisbranch/innercity/internal/content/defaults"
	"github.com/louisbranch/innercity/internal/platform/config"
	"github.com/louisbranch/innercity/internal/platform/otel"
	"github.com/louisbranch/innercity/internal/server"
	bboltstore "github.com/louisbranch/innercity/internal/storage/bbolt"
	sqlitestore "github.com/louisbranch/innercity/internal/storage/sqlite"
	"github.com/louisbranch/innercity/internal/telemetry"
)

// shutdownTimeout is the grace period for in-flight requests.
const shutdownTimeout = 10 * time.Second

// Config holds the service configuration. Environment values are parsed
// first; flags override them.
type Config struct {
	Addr             string        `env:"INNERCITY_ADDR" envDefault:":8080"`
	SavePath         string        `env:"INNERCITY_SAVE_PATH" envDefault:"innercity.db"`
	JournalPath      string        `env:"INNERCITY_JOURNAL_PATH" envDefault:"innercity_journal.db"`
	ContentDir       string        `env:"INNERCITY_CONTENT_DIR"`
	SessionCooldown  time.Duration `env:"INNERCITY_SESSION_COOLDOWN"`
	PointsPerSession int           `env:"INNERCITY_POINTS_PER_SESSION"`
	UnlockThreshold  int           `env:"INNERCITY_UNLOCK_THRESHOLD"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.SavePath, "save", cfg.SavePath, "Path to the player save database")
	fs.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "Path to the session journal database")
	fs.StringVar(&cfg.ContentDir, "content", cfg.ContentDir, "Content directory (embedded defaults when empty)")
	fs.DurationVar(&cfg.SessionCooldown, "cooldown", cfg.SessionCooldown, "Minimum time between sessions")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the game API service and blocks until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, cfg Config) error {
	shutdownTracing, err := otel.Setup(ctx, "innercity")
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	var contentFS fs.FS = defaults.FS
	if cfg.ContentDir != "" {
		contentFS = os.DirFS(cfg.ContentDir)
	}
	set, err := content.Load(contentFS)
	if err != nil {
		return err
	}

	players, err := bboltstore.Open(cfg.SavePath)
	if err != nil {
		return err
	}
	defer players.Close()

	journal, err := sqlitestore.Open(ctx, cfg.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()

	srv := server.New(set, players, journal, telemetry.NewEmitter(journal), server.Config{
		SessionCooldown:  cfg.SessionCooldown,
		PointsPerSession: cfg.PointsPerSession,
		UnlockThreshold:  cfg.UnlockThreshold,
	})

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutdown signal received")
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(stopCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
