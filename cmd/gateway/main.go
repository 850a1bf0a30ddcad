// Command gateway boots the HLS proxy gateway: config, logging, the
// two-tier cache, the upstream fetcher, the HTTP router, the optional
// rate-limit hook, and the cache janitor. Routing follows the chi idiom
// seen in jmylchreest-tvarr/internal/http/server.go; graceful shutdown
// follows the teacher's main.go top-level bootstrap shape.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hlsgate/auxindex"
	"hlsgate/cache"
	"hlsgate/config"
	"hlsgate/extract"
	"hlsgate/fetcher"
	"hlsgate/health"
	"hlsgate/janitor"
	"hlsgate/logger"
	"hlsgate/proxyhandler"
	"hlsgate/ratelimit"
)

func main() {
	cfg := config.Load()
	log := logger.Default

	c := cache.New(cfg.Cache.Namespace, cfg.Cache.SegmentSlots)
	f := fetcher.New(fetcher.Options{
		Timeout:                 cfg.HTTP.Timeout,
		MaxConnections:          cfg.HTTP.MaxConnections,
		MaxKeepaliveConnections: cfg.HTTP.MaxKeepaliveConnections,
		KeepaliveExpiry:         cfg.HTTP.KeepaliveExpiry,
		Retries:                 cfg.HTTP.Retries,
		MaxRedirects:            cfg.Proxy.MaxRedirects,
	}, log)

	proxy := proxyhandler.New(proxyhandler.Config{
		BasePath:          cfg.Proxy.BasePath,
		URLSafeChars:      cfg.Proxy.URLSafeChars,
		InjectStartOffset: cfg.Proxy.InjectStartOffset,
		BufferSize:        cfg.Proxy.BufferSize,
		PrefetchSegments:  cfg.Proxy.PrefetchSegments,
		TTLM3U8:           cfg.Cache.TTLM3U8,
		TTLSegment:        cfg.Cache.TTLSegment,
		Namespace:         cfg.Cache.Namespace,
	}, c, f, log)

	index, err := auxindex.New()
	if err != nil {
		log.Fatalf("initializing auxiliary index: %v", err)
	}
	auxHandlers := auxindex.NewHandlers(index)

	extractor := noopExtractor{}
	extractSvc := extract.New(extractor, c, 600, cfg.HTTP.MaxConnections)

	limiter := ratelimit.New(cfg.RateLimit.Enabled, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	j, err := janitor.New(c, "", log)
	if err != nil {
		log.Fatalf("initializing cache janitor: %v", err)
	}
	j.Start()
	defer j.Stop()

	healthHandler := health.New(c, time.Now())

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(limiter.Middleware)

	r.Get("/proxy", proxy.ServeHTTP)
	r.Get("/health", healthHandler.ServeHTTP)
	r.Get("/search", auxHandlers.Search)
	r.Get("/playlists", auxHandlers.Playlists)
	r.Get("/channel", auxHandlers.Channel)
	r.Get("/comments", auxHandlers.Comments)
	r.Get("/extract", func(w http.ResponseWriter, req *http.Request) {
		handleExtract(w, req, extractSvc, index, cfg.Proxy.BasePath)
	})

	srv := &http.Server{
		Addr:    addr(),
		Handler: r,
	}

	go func() {
		log.Logf("gateway listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Log("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("graceful shutdown failed: %v", err)
	}
}

func addr() string {
	if p := os.Getenv("PORT"); p != "" {
		return ":" + p
	}
	return ":8080"
}
