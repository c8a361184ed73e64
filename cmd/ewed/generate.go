// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ewed/internal/certificate"
	"ewed/internal/media"
)

// generateOptions are the flags of the generate command.
type generateOptions struct {
	userName      string
	celebrityName string
	userVows      string
	celebrityVows string
	nameFont      string
	vowsFont      string
	photo         string
	output        string
	asJSON        bool
	timeout       time.Duration
}

var genOpts generateOptions

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one certificate from the command line",
	Long: `Runs a single generation cycle with the configured AI providers and
writes the certificate as a PNG, or the certificate record as JSON.

Example:
  ewed generate --name Bruce --celebrity Selina --photo me.jpg -o wedding.png`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genOpts.userName, "name", "", "Your name (required)")
	f.StringVar(&genOpts.celebrityName, "celebrity", "", "Celebrity name (required)")
	f.StringVar(&genOpts.userVows, "vows", "", "Your vows")
	f.StringVar(&genOpts.celebrityVows, "celebrity-vows", "", "The celebrity's vows")
	f.StringVar(&genOpts.nameFont, "name-font", certificate.DefaultNameFont, "Typeface for the names")
	f.StringVar(&genOpts.vowsFont, "vows-font", certificate.DefaultVowsFont, "Typeface for the vows")
	f.StringVar(&genOpts.photo, "photo", "", "Path to your photo (JPEG, PNG, GIF or WebP); required unless REQUIRE_PHOTO=false")
	f.StringVarP(&genOpts.output, "output", "o", "-", "Output file, - for stdout")
	f.BoolVar(&genOpts.asJSON, "json", false, "Write the certificate record as JSON instead of a PNG")
	f.DurationVar(&genOpts.timeout, "timeout", 3*time.Minute, "Overall timeout")
	generateCmd.MarkFlagRequired("name")
	generateCmd.MarkFlagRequired("celebrity")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), genOpts.timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if !certificate.IsKnownFont(certificate.NameFonts, genOpts.nameFont) {
		return fmt.Errorf("unknown name font %q (choose from %s)", genOpts.nameFont, strings.Join(certificate.NameFonts, ", "))
	}
	if !certificate.IsKnownFont(certificate.VowsFonts, genOpts.vowsFont) {
		return fmt.Errorf("unknown vows font %q (choose from %s)", genOpts.vowsFont, strings.Join(certificate.VowsFonts, ", "))
	}

	form := certificate.NewForm(a.persona.DefaultStatement).Edit(certificate.Edit{
		UserName:      &genOpts.userName,
		CelebrityName: &genOpts.celebrityName,
		UserVows:      &genOpts.userVows,
		CelebrityVows: &genOpts.celebrityVows,
		NameFont:      &genOpts.nameFont,
		VowsFont:      &genOpts.vowsFont,
	})

	if genOpts.photo != "" {
		ref, err := publishPhoto(ctx, a.publisher, genOpts.photo, genOpts.userName)
		if err != nil {
			return err
		}
		form = form.WithUserPhoto(ref)
	}

	form, err = a.orchestrator.Submit(ctx, form)
	if err != nil {
		return fmt.Errorf("%s (%w)", certificate.MessageFor(err), err)
	}

	var payload []byte
	if genOpts.asJSON {
		payload, err = json.MarshalIndent(form.Record, "", "  ")
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		payload = append(payload, '\n')
	} else {
		payload, err = a.exporter(nil).Export(ctx, form.Record)
		if err != nil {
			return err
		}
	}

	// Opened last so a failed generation leaves no empty file behind.
	out, closeOut, err := openOutput(genOpts.output)
	if err != nil {
		return err
	}
	defer closeOut()

	if _, err := out.Write(payload); err != nil {
		return fmt.Errorf("write certificate: %w", err)
	}
	slog.Info("certificate written", "number", form.Record.Number, "output", genOpts.output, "bytes", len(payload))
	return nil
}

// publishPhoto ingests the photo at path and publishes it.
func publishPhoto(ctx context.Context, pub media.Publisher, path, name string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open photo: %w", err)
	}
	defer f.Close()

	photo, err := media.Ingest(f)
	if err != nil {
		return "", fmt.Errorf("%s (%w)", media.UserMessage(err), err)
	}
	return pub.Publish(ctx, photo.Data, photo.ContentType, "photos", name)
}

// openOutput returns the destination writer; "-" is stdout.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			slog.Warn("close output", "error", err)
		}
	}, nil
}
