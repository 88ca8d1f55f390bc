package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/blogapp/internal/apiclient"
	"github.com/msomdec/blogapp/internal/config"
	"github.com/msomdec/blogapp/internal/domain"
	"github.com/msomdec/blogapp/internal/handler"
	"github.com/msomdec/blogapp/internal/listing"
	"github.com/msomdec/blogapp/internal/repository/s3store"
	"github.com/msomdec/blogapp/internal/repository/sqlite"
	"github.com/msomdec/blogapp/internal/service"
	"github.com/msomdec/blogapp/internal/session"
)

const (
	sessionIdle     = 30 * time.Minute
	viewIdle        = time.Hour
	recordRetention = 30 * 24 * time.Hour
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"), os.Getenv)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	sessionKey := mustDeriveKey(cfg.AppSecret, "session-records")
	visitorKey := mustDeriveKey(cfg.AppSecret, "visitor-token")
	oauthKey := mustDeriveKey(cfg.AppSecret, "oauth-state")

	sealer, err := session.NewSealer(sessionKey)
	if err != nil {
		slog.Error("failed to create session sealer", "error", err)
		os.Exit(1)
	}
	sessions := session.NewManager(visitorKey, session.NewSealedBackend(db.SessionRecords(), sealer))

	primary, err := apiclient.New("primary", cfg.PrimaryAPIURL,
		apiclient.WithCredentialMode(apiclient.CookieCredentials),
		apiclient.WithRefresh(apiclient.PathRefresh, cfg.TokenExpiredMessage),
	)
	if err != nil {
		slog.Error("failed to configure primary API client", "error", err)
		os.Exit(1)
	}
	legacy, err := apiclient.New("legacy", cfg.LegacyAPIURL,
		apiclient.WithCredentialMode(apiclient.BearerCredentials),
	)
	if err != nil {
		slog.Error("failed to configure legacy API client", "error", err)
		os.Exit(1)
	}
	api := apiclient.NewAPI(primary, legacy)

	var (
		uploader domain.FileUploader = apiclient.NewUploader(legacy)
		files    handler.FileSource
	)
	switch cfg.FileStore {
	case config.FileStoreS3:
		uploader, err = s3store.New(ctx, cfg.S3.Bucket, cfg.S3.PublicBaseURL)
		if err != nil {
			slog.Error("failed to configure S3 file store", "error", err)
			os.Exit(1)
		}
	case config.FileStoreSQLite:
		local := db.Files()
		uploader, files = local, local
	}
	slog.Info("file store selected", "store", cfg.FileStore)

	authService := service.NewAuthService(api)
	blogService := service.NewBlogService(api, uploader, cfg.PageSize)
	profileService := service.NewProfileService(api, authService)

	var oauth *service.GoogleOAuth
	if cfg.Google.Enabled() {
		oauth = service.NewGoogleOAuth(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL, oauthKey)
		slog.Info("google sign-in enabled")
	}

	// Five auth submissions per IP, refilling one every 12 seconds.
	limiter := service.NewTokenBucket(1.0/12, 5)
	limiter.StartCleanup(ctx)

	views := listing.NewRegistry()
	views.StartJanitor(ctx, time.Minute, viewIdle)
	sessions.StartJanitor(ctx, 5*time.Minute, sessionIdle)
	go purgeRecords(ctx, db.SessionRecords())

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, sessions, authService, blogService, profileService, views, handler.Options{
		CookieSecure: cfg.CookieSecure,
		OAuth:        oauth,
		Limiter:      limiter,
		Listing:      []listing.Option{listing.WithDebounce(cfg.SearchDebounce)},
		Files:        files,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
		// Listing streams end when shutdown starts.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func mustDeriveKey(secret, purpose string) []byte {
	key, err := session.DeriveKey(secret, purpose)
	if err != nil {
		slog.Error("failed to derive key", "purpose", purpose, "error", err)
		os.Exit(1)
	}
	return key
}

// purgeRecords deletes session records nobody has touched within the
// retention period, once a day.
func purgeRecords(ctx context.Context, records *sqlite.SessionRecordRepository) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		n, err := records.DeleteOlderThan(ctx, time.Now().Add(-recordRetention))
		if err != nil && ctx.Err() == nil {
			slog.Error("purge stale session records", "error", err)
		} else if n > 0 {
			slog.Info("purged stale session records", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
