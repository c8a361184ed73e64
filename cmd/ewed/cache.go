// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ewed/internal/cache"
	"ewed/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the PNG export cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached export",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		return fmt.Errorf("connect to valkey: %w", err)
	}
	defer client.Close()

	n, err := cache.NewExportCache(client, cache.DefaultExportTTL).InvalidateAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("clear export cache: %w", err)
	}
	slog.Info("export cache cleared", "entries", n)
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached exports\n", n)
	return nil
}
