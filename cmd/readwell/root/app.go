package root

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"readwell/internal/cache"
	"readwell/internal/config"
	"readwell/internal/database"
	"readwell/internal/logger"
	"readwell/internal/service"
)

type app struct {
	cfg *config.Config
	db  *database.DB
	svc *service.Services
	log *zap.Logger
}

// openApp loads config and wires the services for one command run. Every log
// line of the run carries the same op id.
func openApp(ctx context.Context) (*app, func(), error) {
	cfg := config.Load()

	log, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	log = log.With(zap.String("op", uuid.NewString()))

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	if _, err := db.RunMigrations(ctx); err != nil {
		db.Close()
		_ = log.Sync()
		return nil, nil, err
	}

	opts := service.Options{
		Logger:         log,
		LinkCodeTTL:    cfg.LinkCodeTTL,
		LeaderboardTTL: cfg.LeaderboardCacheTTL,
		BulkChunk:      cfg.NotifyBatchSize,
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.Connect(ctx, cfg)
		if err != nil {
			db.Close()
			_ = log.Sync()
			return nil, nil, err
		}
		opts.Cache = cache.NewRedisCache(rdb)
		opts.LinkCodes = cache.NewRedisLinkCodeStore(rdb)
	}

	mailer, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug, log.Named("email"))
	if err != nil {
		log.Warn("email disabled", zap.Error(err))
	} else if mailer.IsEnabled() {
		opts.Mailer = mailer
	}

	cleanup := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = db.Close()
		_ = log.Sync()
	}
	return &app{cfg: cfg, db: db, svc: service.New(db, opts), log: log}, cleanup, nil
}

// withApp runs fn against a freshly opened app
func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := sonic.ConfigDefault.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// render prints v as JSON under --json, otherwise hands off to human
func render(w io.Writer, v any, human func()) error {
	if jsonOutput {
		return printJSON(w, v)
	}
	human()
	return nil
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", what, s)
	}
	return id, nil
}

func parseIDs(args []string, what string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a, what)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseDue accepts RFC 3339 or a bare date, which means the end of that local day.
func parseDue(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	d = d.Add(24*time.Hour - time.Second)
	return &d, nil
}

// optInt returns nil when the flag was not set
func optInt(set bool, v int) *int {
	if !set {
		return nil
	}
	return &v
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("02/01/2006 15:04")
}
