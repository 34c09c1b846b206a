package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/workhub/internal/app"
	"github.com/nhle/workhub/internal/credential"
	"github.com/nhle/workhub/internal/model"
	"github.com/nhle/workhub/internal/session"
	"github.com/nhle/workhub/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "workhub",
		Short:        "Terminal client for the Work Management System",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "path to config file")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the current configuration (defaults plus overrides) to the config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := model.SaveConfig(configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
			return nil
		},
	})

	root.AddCommand(configCmd, &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session and its cached data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return logout(cmd.Context(), configPath)
		},
	})
	return root
}

func run(configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}

	dir := model.DefaultConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	f, err := tea.LogToFile(filepath.Join(dir, "workhub.log"), "workhub")
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()

	ring, err := credential.Open(dir)
	if err != nil {
		return err
	}
	sessions := session.NewStore(ring)

	var cache store.Store
	db, err := store.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		// The cache only speeds up start; run without it.
		log.Printf("workhub: snapshot cache disabled: %v", err)
	} else {
		defer db.Close()
		cache = db
	}

	p := tea.NewProgram(app.New(cfg, configPath, sessions, cache), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

func logout(ctx context.Context, configPath string) error {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return err
	}
	ring, err := credential.Open(model.DefaultConfigDir())
	if err != nil {
		return err
	}
	sessions := session.NewStore(ring)
	sess := sessions.Load()
	if err := sessions.Clear(); err != nil {
		return err
	}
	if sess == nil {
		return nil
	}

	db, err := store.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Purge(ctx, sess.UserID)
}
