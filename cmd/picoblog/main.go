// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the PicoBlog server. The root command
// loads configuration and sets up logging; subcommands serve the blog,
// apply migrations or seed sample articles.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"picoblog/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running picoblog without a
// subcommand serves the blog.
func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "picoblog",
		Short:         "A small blog engine with an admin screen and RSS feed",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				fmt.Fprintln(os.Stderr, "configuration error:", err)
				return err
			}
			cfg = loaded
			slog.SetDefault(newLogger(cfg))
			return nil
		},
	}

	serve := newServeCmd(&cfg)
	root.RunE = serve.RunE
	root.AddCommand(serve, newMigrateCmd(&cfg), newSeedCmd(&cfg))
	return root
}

// newLogger returns a text logger in development and a JSON logger
// otherwise, at the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.IsDev() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
