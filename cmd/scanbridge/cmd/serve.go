package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/scanbridge/internal/bridge"
	"github.com/MeKo-Tech/scanbridge/internal/camera"
	"github.com/MeKo-Tech/scanbridge/internal/history"
	"github.com/MeKo-Tech/scanbridge/internal/prefs"
	"github.com/MeKo-Tech/scanbridge/internal/server"
	"github.com/MeKo-Tech/scanbridge/internal/session"
)

// serveCmd starts the bridge server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP/websocket bridge server",
	Long: `Start a server exposing the bridge surface:

  POST /decode  - single-image barcode decoding
  GET  /history - recorded scans
  GET  /health  - health check endpoint
  GET  /metrics - prometheus metrics
  WS   /bridge  - bridge request/response channel (scan, encode, decode)

Scan requests run against a virtual camera; --frames supplies the images it
delivers as preview frames.

Examples:
  scanbridge serve
  scanbridge serve --port 9000 --frames frames/*.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}
		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}
		maxPayloadMB := cfg.Server.MaxPayloadMB
		if cmd.Flags().Changed("max-payload") {
			maxPayloadMB, _ = cmd.Flags().GetInt64("max-payload")
		}
		shutdownTimeout, _ := cmd.Flags().GetInt("shutdown-timeout")
		frames, _ := cmd.Flags().GetStringSlice("frames")

		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		prefStore, err := prefs.NewStore(cfg.Storage.PrefsPath)
		if err != nil {
			return fmt.Errorf("opening preferences: %w", err)
		}
		hist := history.NewStore(cfg.Storage.HistoryPath)

		driver := session.NewDriver(session.Options{
			Devices:             frameDeviceProvider(frames),
			History:             hist,
			Prefs:               prefStore,
			MinPreviewPixels:    cfg.Camera.MinPreviewPixels,
			MaxPreviewPixels:    cfg.Camera.MaxPreviewPixels,
			BulkScanDelay:       time.Duration(cfg.Capture.BulkScanDelayMS) * time.Millisecond,
			ExternallyInitiated: true,
		})
		adapter := bridge.NewAdapter(bridge.Options{
			Driver:  driver,
			Surface: func() camera.Surface { return camera.Surface{Width: 1080, Height: 1920} },
		})

		bridgeServer := server.NewServer(server.Config{
			Host:              host,
			Port:              port,
			CORSOrigin:        corsOrigin,
			MaxPayloadMB:      maxPayloadMB,
			RequestsPerMinute: cfg.Server.RequestsPerMinute,
			MaxDataPerDay:     cfg.Server.MaxDataPerDayMB * 1024 * 1024,
		}, adapter, hist)

		mux := http.NewServeMux()
		bridgeServer.SetupRoutes(mux)
		mux.Handle("/metrics", promhttp.Handler())

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			slog.Info("Starting bridge server", "host", host, "port", port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		slog.Info("Shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
		slog.Info("Graceful shutdown completed")
		return nil
	},
}

// frameDeviceProvider builds a fresh virtual camera per session, loaded with
// the configured frame images.
func frameDeviceProvider(paths []string) session.DeviceProvider {
	return func(bool) camera.Device {
		dev := camera.NewVirtualDevice()
		for _, path := range paths {
			img, err := imaging.Open(path)
			if err != nil {
				slog.Warn("Skipping unreadable frame", "path", path, "error", err)
				continue
			}
			dev.QueueImage(img)
		}
		return dev
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "127.0.0.1", "server host")
	serveCmd.Flags().IntP("port", "p", 8089, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int64("max-payload", 10, "maximum decode payload size in MB")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().StringSlice("frames", nil, "image files delivered as preview frames for scan sessions")
}
