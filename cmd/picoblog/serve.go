// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"picoblog/internal/blog"
	"picoblog/internal/cache"
	"picoblog/internal/config"
	"picoblog/internal/database"
	"picoblog/internal/handlers"
	"picoblog/internal/markdown"
	"picoblog/internal/middleware"
	"picoblog/internal/ping"
	"picoblog/internal/render"
	"picoblog/internal/router"
	"picoblog/internal/storage"
	"picoblog/internal/store"
)

// Admin write throttle: a burst of 30 saves or deletes, refilled over a minute.
const (
	adminWriteLimit  = 30
	adminWriteWindow = time.Minute
)

func newServeCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the blog server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *cfg)
		},
	}
}

// serve connects to the backing services, starts the HTTP server and
// blocks until SIGINT or SIGTERM, then drains connections.
func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"blog", cfg.Blog.Name,
		"url", cfg.Blog.CanonicalURL,
	)

	pool, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		return err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		slog.Error("failed to run migrations", "error", err)
		return err
	}

	// Seed development data (no-op if articles already exist).
	if cfg.IsDev() {
		if err := database.Seed(ctx, pool); err != nil {
			slog.Error("failed to seed database", "error", err)
			return err
		}
	}

	// The page cache is optional; without Valkey every request renders.
	var pageCache *cache.PageCache
	if cfg.CacheEnabled() {
		valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			return err
		}
		defer valkeyClient.Close()
		pageCache = cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)
		pageCache.InvalidateAll(ctx)
	} else {
		slog.Warn("valkey not configured, page cache disabled")
	}

	// Object storage is optional; it only mirrors the feed.
	s3, err := storage.New(cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		return err
	}
	mirror := storage.NewFeedMirror(s3, cfg.Storage.FeedKey)
	if mirror != nil {
		slog.Info("feed mirror enabled", "url", mirror.URL())
	}

	pinger := ping.New(cfg.Ping, cfg.Blog)
	if pinger.Enabled() {
		slog.Info("update pings enabled", "endpoints", len(cfg.Ping.URLs))
	}

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		return err
	}

	articles := store.NewArticleStore(pool)
	changes := store.NewChangeLogStore(pool)
	pages := blog.NewService(articles, blog.NewAssembler(cfg.Blog, markdown.New()))

	limiter := middleware.NewRateLimiter(adminWriteLimit, adminWriteWindow)
	defer limiter.Stop()

	r := router.New(router.Options{
		Blog:          cfg.Blog,
		SecureCookies: !cfg.IsDev(),
		AdminLimiter:  limiter,
		Health:        pool.Ping,
	},
		handlers.NewAdmin(renderer, articles, changes, pages, pageCache, pinger, mirror),
		handlers.NewPublic(pages, renderer, pageCache),
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed to start", "error", err)
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		return err
	}

	// Let in-flight update pings finish.
	pinger.Wait()

	slog.Info("server stopped gracefully")
	return nil
}
