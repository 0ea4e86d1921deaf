package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"articles/backend/internal/article"
	"articles/backend/internal/cohere"
	"articles/backend/internal/config"
	"articles/backend/internal/crawl"
	"articles/backend/internal/db"
	"articles/backend/internal/extract"
	"articles/backend/internal/httpapi"
	"articles/backend/internal/logging"
	"articles/backend/internal/rewrite"
	"articles/backend/internal/serper"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.Open(cfg)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer database.Close()

	articles := article.NewStore(database)

	searcher := rewrite.NewSpacedSearcher(serper.NewClient(cfg, nil), cfg.SerperMinInterval)
	reader := extract.NewHTTPReader(extract.ReaderConfig{
		RequestTimeout:    cfg.FetchTimeout,
		BlockPrivateHosts: cfg.FetchBlockPrivateHosts,
	}, nil)
	resolver := rewrite.NewResolver(articles, rewrite.NewFinder(searcher, cfg.PublisherDomain), reader, logger.Named("resolver"))
	generator := rewrite.NewGenerator(cohere.NewClient(cfg, nil), cfg.CohereModels, cfg.CohereTemperature, logger.Named("generator"))
	pipeline := rewrite.NewPipeline(articles, resolver, generator, logger.Named("pipeline"))

	crawler := crawl.NewCrawler(cfg.FetchTimeout, nil, logger.Named("crawl"))

	handler := httpapi.NewHandler(cfg, articles, pipeline, crawler, logger.Named("http"))

	srv := &http.Server{
		Addr:         cfg.ListenAddress(),
		Handler:      httpapi.NewRouter(cfg, handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SearchTimeout + 2*cfg.FetchTimeout + time.Duration(len(cfg.CohereModels))*cfg.GenerationTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", zap.String("addr", cfg.ListenAddress()), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
