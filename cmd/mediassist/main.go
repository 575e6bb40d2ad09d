package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"mediassist/internal/api"
	"mediassist/internal/config"
	"mediassist/internal/session"
	"mediassist/internal/speech"
	"mediassist/internal/telemetry"
	"mediassist/internal/tui"
)

func main() {
	var (
		configPath string
		baseURL    string
		profileDB  string
		speechCmd  string
		debug      bool
	)

	flag.StringVar(&configPath, "config", "mediassist.toml", "Path to TOML config file")
	flag.StringVar(&baseURL, "base-url", "", "Backend base URL (overrides config)")
	flag.StringVar(&profileDB, "profile-db", "", "Path to the profile database (overrides config)")
	flag.StringVar(&speechCmd, "speech-cmd", "", "External speech-to-text command (overrides config)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if profileDB != "" {
		cfg.ProfileDB = profileDB
	}
	if speechCmd != "" {
		cfg.SpeechCommand = speechCmd
	}
	if debug {
		cfg.Debug = true
	}

	logger, err := telemetry.InitLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	_, _, cleanup, err := telemetry.InitTelemetry(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize telemetry: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	store, err := session.Open(cfg.ProfileDB, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open profile store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	client := api.NewClient(cfg.BaseURL, logger)
	recognizer := speech.NewCommandRecognizer(cfg.SpeechCommand, logger)
	profile := store.Load()

	logger.Info("starting mediassist", "base_url", cfg.BaseURL, "remembered_user", profile != nil)

	program := tea.NewProgram(
		tui.New(client, store, recognizer, profile, logger),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
