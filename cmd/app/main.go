// Photo Filters - Desktop Filter Tool
// Author: Photo Filters contributors
// License: MIT
// Version: 1.0.0 - Chained Filters + PSNR

package main

import (
	"context"
	"flag"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"photo-filters/internal/config"
	"photo-filters/internal/core"
	"photo-filters/internal/gui"
	"photo-filters/internal/io"
	"photo-filters/internal/metrics"
	"photo-filters/internal/preview"
)

const (
	AppName    = "Photo Filters"
	AppID      = "com.photofilters.desktop"
	AppVersion = "1.0.0"
)

func main() {
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	configPath := flag.String("config", "", "Path to a YAML config file")
	openPath := flag.String("open", "", "Image to select on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if *debugMode {
		cfg.Debug = true
	}

	logger := initLogger(cfg)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": cfg.Debug,
		"config":     *configPath,
	}).Info("Starting Photo Filters")

	loader := io.NewImageLoader(logger, cfg.Engine.JPEGQuality)
	engine := core.NewEngine(loader, logger,
		core.WithOriginalRecovery(cfg.Engine.RecoverOriginal),
		core.WithMaxDimension(cfg.Engine.MaxDimension),
		core.WithEvaluator(metrics.NewEvaluator()),
	)
	session := core.NewSession()
	pipeline := core.NewPipeline(engine, session, logger, cfg.Queue.Size)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.DocumentIcon())

	mainApp := gui.NewApplication(myApp, gui.Options{
		Session:  session,
		Runner:   pipeline,
		Loader:   loader,
		Previews: preview.NewLoader(cfg.GUI.PreviewMax, logger),
		Width:    cfg.GUI.Width,
		Height:   cfg.GUI.Height,
	}, logger, cfg.Debug)

	pipeline.Start(ctx)

	if *openPath != "" {
		logger.WithField("path", *openPath).Info("Opening startup image")
		mainApp.SelectImage(*openPath)
	}

	mainApp.ShowAndRun()

	pipeline.Stop()
	logger.Info("Application shutting down gracefully")
	os.Exit(0)
}

// initLogger initializes the logger with appropriate level and format
func initLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if cfg.Debug || cfg.Log.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   cfg.Debug,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if err != nil {
		logger.WithField("level", cfg.Log.Level).Warn("Unknown log level, using info")
	}
	logger.Debug("Debug logging enabled")

	return logger
}
