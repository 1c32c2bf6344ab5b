package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kwrenn/signet/internal/client"
	"github.com/kwrenn/signet/internal/config"
	"github.com/kwrenn/signet/internal/logger"
	"github.com/kwrenn/signet/internal/player"
	"github.com/kwrenn/signet/internal/render"
)

// Natural-length items cannot signal their real end without a playback
// surface; headless players cycle them on a fixed interval instead.
const headlessVideoCycle = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", false)
		logger.Log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)

	apiClient := client.NewClient(cfg.Player.ServerURL, cfg.Player.APIToken)

	deviceID := cfg.Player.DeviceID
	if deviceID == "" {
		if cfg.Player.PairingCode == "" {
			logger.Log.Fatal().Msg("Either a device ID with token or a pairing code is required")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		result, err := apiClient.Register(ctx, cfg.Player.PairingCode, hostname())
		cancel()
		if err != nil {
			logger.Log.Fatal().
				Err(err).
				Str("server_url", cfg.Player.ServerURL).
				Msg("Device registration failed")
		}
		deviceID = result.DeviceID.String()
		logger.Log.Info().
			Str("device_id", deviceID).
			Str("name", result.Name).
			Msg("Device registered")
	}

	logSurface := render.NewLog()
	surfaces := []render.Surface{logSurface}

	var preview *render.Preview
	var previewSrv *http.Server
	if cfg.Player.PreviewAddr != "" {
		preview = render.NewPreview()
		surfaces = append(surfaces, preview)

		gin.SetMode(gin.ReleaseMode)
		router := gin.New()
		router.GET("/ws/preview", preview.Handler())
		previewSrv = &http.Server{Addr: cfg.Player.PreviewAddr, Handler: router}
		go func() {
			logger.Log.Info().
				Str("addr", cfg.Player.PreviewAddr).
				Msg("Preview listener started")
			if err := previewSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Log.Error().Err(err).Msg("Preview listener failed")
			}
		}()
	} else {
		logSurface.NaturalEndAfter = headlessVideoCycle
	}

	engine := player.NewEngine(player.Config{
		TickInterval:      cfg.Player.TickInterval,
		PollInterval:      cfg.Player.PollInterval,
		HeartbeatInterval: cfg.Player.HeartbeatInterval,
		ErrorGrace:        cfg.Player.ErrorGrace,
		SlidesReadyDelay:  cfg.Player.SlidesReadyDelay,
	}, apiClient, apiClient, render.NewMulti(surfaces...), player.Callbacks{})

	logSurface.Attach(engine)
	if preview != nil {
		preview.Attach(engine)
	}

	if err := engine.Connect(deviceID); err != nil {
		logger.Log.Fatal().
			Err(err).
			Str("device_id", deviceID).
			Msg("Failed to start playback engine")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	engine.Disconnect()

	if previewSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = previewSrv.Shutdown(ctx) // nolint:errcheck
	}
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "signage-player"
	}
	return name
}
