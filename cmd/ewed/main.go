// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the E-Wed certificate generator.
// "serve" runs the web server; "generate" produces one certificate from the
// command line; "cache clear" drops every cached export.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ewed",
	Short: "E-Wed - celebrity marriage certificate generator",
	Long: `E-Wed lets a visitor marry a celebrity on paper. It asks an AI model
for a witness statement and a portrait, fills in a certificate, and offers
it for printing or as a PNG download.

Configuration is read from the environment (see README).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		// generate may stream the PNG to stdout, so only the server logs there.
		out := os.Stderr
		if cmd == serveCmd {
			out = os.Stdout
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
