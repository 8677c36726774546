package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	synthOutput   string
	synthLanguage string

	synthCmd = &cobra.Command{
		Use:     "synth [TEXT|FILE|-]... --output NAME",
		Short:   "Render speech to a WAV file",
		Long:    paragraph(fmt.Sprintf("\n%s the given text to a WAV file. Relative names are placed in the configured output_dir.", keyword("Render"))),
		Example: paragraph("lingo synth --output greeting \"hello world\"\nlingo synth -o notes.wav -l de-DE notes.md"),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := speakSource(args, false)
			if err != nil {
				return err
			}
			text, err := src.Text()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
			defer cancel()

			s, err := newSpeech(ttsConfig)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			s.SetAwaitSynthCompletion(true)
			if err := s.SynthesizeToFileContext(ctx, text, synthOutput, synthLanguage); err != nil {
				if errors.Is(err, context.Canceled) {
					s.Stop()
				}
				return err
			}

			path := s.files.Path(synthOutput)
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("unable to stat output: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s %s\n", path, subtle("("+humanize.Bytes(uint64(info.Size()))+")")) //nolint:gosec
			return nil
		},
	}
)

func init() {
	synthCmd.Flags().StringVarP(&synthOutput, "output", "o", "", "file to write (.wav is added when there is no extension)")
	synthCmd.Flags().StringVarP(&synthLanguage, "language", "l", "", "language to render in (default from config)")
	_ = synthCmd.MarkFlagRequired("output")
}
