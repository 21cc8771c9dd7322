package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/feelsunbreeze/result_portal_tui/internal/api"
	"github.com/feelsunbreeze/result_portal_tui/internal/config"
	"github.com/feelsunbreeze/result_portal_tui/internal/logger"
	"github.com/feelsunbreeze/result_portal_tui/internal/session"
	"github.com/feelsunbreeze/result_portal_tui/internal/store"
	"github.com/feelsunbreeze/result_portal_tui/internal/ui"
)

func StartTUI(cfg *config.Config) error {
	logPath, err := cfg.LogPath()
	if err != nil {
		return fmt.Errorf("failed to resolve log path: %w", err)
	}
	logFile, err := logger.OpenFile(logPath)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// The terminal belongs to the UI, so logs only go to the file.
	logger.Init(cfg.Logging.Level, cfg.Logging.Format, logFile)
	log := logger.Get()

	tokenPath, err := cfg.TokenPath()
	if err != nil {
		return fmt.Errorf("failed to resolve token path: %w", err)
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, log.With().Str("component", "api").Logger())
	orch := session.New(client, store.NewFileStore(tokenPath),
		session.WithLogger(log.With().Str("component", "session").Logger()),
		session.WithNoticeDelay(cfg.UI.NoticeDelay),
	)
	defer orch.Close()

	log.Info().Str("api", client.BaseURL()).Str("token_file", tokenPath).Msg("Starting result portal")

	p := tea.NewProgram(ui.NewModel(orch), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("TUI exited with error")
		return err
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	if err := StartTUI(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
