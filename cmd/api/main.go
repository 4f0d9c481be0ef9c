package main

import (
	"context"
	"log"

	"dhl-tracking-proxy/internal/core/cache"
	"dhl-tracking-proxy/internal/core/config"
	"dhl-tracking-proxy/internal/core/logger"
	"dhl-tracking-proxy/internal/core/proxy"
	"dhl-tracking-proxy/internal/core/ratelimit"
	"dhl-tracking-proxy/internal/core/server"
	"dhl-tracking-proxy/internal/features/tracking/adapters"
	"dhl-tracking-proxy/internal/features/tracking/blockdetect"
	"dhl-tracking-proxy/internal/features/tracking/browser"
	"dhl-tracking-proxy/internal/features/tracking/extract"
	trackinghandler "dhl-tracking-proxy/internal/features/tracking/handler"
	trackingservice "dhl-tracking-proxy/internal/features/tracking/service"

	"go.uber.org/zap"
)

// @title DHL Tracking Proxy API
// @version 1.0
// @description Queries DHL shipment status through a stealth headless browser and returns normalized tracking data.
// @contact.name API Support
// @contact.email support@dhltrackingproxy.com
// @license.name MIT
// @host localhost:3000
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	// Upstream proxies with credentials need a local forwarder because
	// Chromium cannot take proxy auth on the command line.
	proxySettings := proxy.FromConfig(cfg.Proxy)
	proxyAddr := ""
	if proxySettings.HasCredentials() {
		forwarder, err := proxy.NewForwardingProxy(proxySettings.FullURL())
		if err != nil {
			l.Fatal("Invalid proxy configuration", zap.Error(err))
		}
		addr, err := forwarder.Start(context.Background())
		if err != nil {
			l.Fatal("Failed to start proxy forwarder", zap.Error(err))
		}
		defer forwarder.Stop()
		proxyAddr = addr
		l.Info("Proxy forwarder started", zap.String("local_addr", addr))
	} else if proxySettings.HasProxy() {
		proxyAddr = proxySettings.HostPort()
	}

	// Optional extraction-result cache.
	var resultCache cache.Cache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedisAdapter(cfg.RedisURL)
		if err != nil {
			l.Fatal("Failed to create Redis cache", zap.Error(err))
		}
		if err := redisCache.Ping(context.Background()); err != nil {
			l.Fatal("Redis health check failed", zap.Error(err))
		}
		defer redisCache.Close()
		resultCache = redisCache
		l.Info("Result cache enabled", zap.Duration("ttl", cfg.CacheTTL()))
	}

	cookieStore := adapters.NewFileCookieStore(cfg.Browser.CookiesFile)
	manager := browser.NewManager(cfg, cookieStore, proxyAddr, logger.Named("browser.session"))
	defer manager.Close()

	navigator := browser.NewNavigator(browser.DHLFromConfig(cfg), browser.NewHumanizer(), logger.Named("browser.navigate"))
	engine := extract.NewEngine(nil)
	detector := blockdetect.NewDetector()

	dhlAdapter := adapters.NewDHLAdapter(manager, navigator, engine, detector, cookieStore, logger.Named("tracking.adapter"))

	gate := ratelimit.NewGate(cfg.DHL.MinRequestInterval())
	trackingSvc := trackingservice.NewTrackingService(dhlAdapter, gate, resultCache, cfg.CacheTTL(), logger.Named("tracking.service"))
	trackingHdl := trackinghandler.NewTrackingHandler(trackingSvc, manager, logger.Named("tracking.handler"))

	srv := server.New(cfg)
	trackingHdl.Register(srv.App)

	// Pre-build the warm session in the background so the first query skips
	// session construction.
	go func() {
		if err := manager.Warm(context.Background()); err != nil {
			l.Warn("Startup warmup failed, sessions will build on demand", zap.Error(err))
			return
		}
		l.Info("Warm session ready")
	}()

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
