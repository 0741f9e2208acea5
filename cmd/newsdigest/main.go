package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"newsdigest/internal/config"
	"newsdigest/internal/deliver"
	"newsdigest/internal/digest"
	"newsdigest/internal/logger"
	"newsdigest/internal/metrics"
)

func main() {
	logger.Init()

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pipeline, err := digest.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		sender, err := deliver.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, nil)
		if err != nil {
			logger.Error("failed to configure delivery", "error", err)
			os.Exit(1)
		}
		pipeline.SetDeliverer(&deliver.DigestDeliverer{Sender: sender})
	} else {
		logger.Warn("telegram credentials not set, digest will not be delivered")
	}

	result, err := pipeline.Run(ctx)
	if err != nil {
		logger.Error("digest run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("run complete",
		"articles", result.TotalArticles,
		"categories", len(result.Categories),
		"insufficient", result.InsufficientArticles)
}

func startMonitoringServer() {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error("monitoring server error", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}
