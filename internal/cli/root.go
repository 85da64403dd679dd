// Package cli wires configuration, storage, and the HTTP clients into
// the terminal client and the git-guard maintenance commands.
package cli

import (
	"fmt"

	"medguide/internal/api"
	"medguide/internal/chat"
	"medguide/internal/config"
	"medguide/internal/export"
	"medguide/internal/kv"
	"medguide/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	flagAssistantURL string
	flagGuardURL     string
	flagDBPath       string
	flagExportDir    string
)

var rootCmd = &cobra.Command{
	Use:   "medguide",
	Short: "Terminal client for the medical assistant service",
	Long: "medguide is a terminal chat client for a retrieval-backed medical\n" +
		"assistant. Consultations are kept locally and each answer links the\n" +
		"archive cases it was grounded on.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAssistantURL, "assistant-url", "", "assistant service base URL")
	rootCmd.PersistentFlags().StringVar(&flagGuardURL, "guard-url", "", "git-guard service base URL")
	rootCmd.Flags().StringVar(&flagDBPath, "db", "", "path to the local session database")
	rootCmd.Flags().StringVar(&flagExportDir, "export-dir", "", "directory for exported transcripts")
	rootCmd.AddCommand(newGuardCmd())
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig applies command-line overrides on top of the file and
// environment layers.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if flagAssistantURL != "" {
		cfg.Assistant.URL = flagAssistantURL
	}
	if flagGuardURL != "" {
		cfg.Guard.URL = flagGuardURL
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
	}
	if flagExportDir != "" {
		cfg.Export.Dir = flagExportDir
	}
	return cfg, nil
}

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := kv.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open session database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing session database", "err", err)
		}
	}()

	sessions := chat.NewSessionStore(store, chat.Keys{
		History:          cfg.Storage.HistoryKey,
		TranscriptPrefix: cfg.Storage.TranscriptPrefix,
	})
	ctrl := chat.NewController(sessions, "")

	answers := api.NewClient(cfg.Assistant.URL, cfg.Assistant.Timeout())
	guard := api.NewClient(cfg.Guard.URL, cfg.Guard.Timeout())

	exp, err := export.New(cfg.Export.Dir)
	if err != nil {
		return err
	}

	model := ui.NewModel(cfg, ctrl, answers, guard, exp)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}
