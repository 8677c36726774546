package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/textsrc"
	"github.com/dgnsrekt/lingo/tts"
	"github.com/dgnsrekt/lingo/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	speakLanguage  string
	speakClipboard bool
	speakPlain     bool

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT|FILE|-]...",
		Short: "Speak text, a file or stdin",
		Long: paragraph(fmt.Sprintf("\n%s the given text. Arguments naming a file are read, markdown files are spoken without their markup. With no arguments, piped input is spoken.", keyword("Speak"))),
		Example: paragraph("lingo speak \"hello world\"\nlingo speak --language fr-FR bonjour\nlingo speak README.md\necho hello | lingo speak"),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := speakSource(args, speakClipboard)
			if err != nil {
				return err
			}
			text, err := src.Text()
			if err != nil {
				return err
			}

			language := speakLanguage
			if language == "" {
				language = ttsConfig.DefaultLanguage
			}

			if !speakPlain && term.IsTerminal(int(os.Stdout.Fd())) {
				return runSpeakTUI(text, language)
			}
			return runSpeakPlain(cmd.Context(), cmd.OutOrStdout(), text, language)
		},
	}
)

func init() {
	speakCmd.Flags().StringVarP(&speakLanguage, "language", "l", "", "language to speak in (default from config)")
	speakCmd.Flags().BoolVarP(&speakClipboard, "clipboard", "c", false, "speak the clipboard contents")
	speakCmd.Flags().BoolVar(&speakPlain, "plain", false, "print words as they are spoken instead of running the TUI")
}

// speakSource picks where the text comes from: the clipboard, the
// arguments, or a pipe on stdin.
func speakSource(args []string, clipboard bool) (*textsrc.Source, error) {
	if clipboard {
		return textsrc.FromClipboard()
	}
	if len(args) > 0 {
		return textsrc.FromArgs(args, os.Stdin)
	}

	pipe, err := textsrc.StdinIsPipe()
	if err != nil {
		return nil, err
	}
	if !pipe {
		return nil, errors.New("nothing to speak: pass text, a file, or pipe input")
	}
	return textsrc.FromArg("-", os.Stdin)
}

func runSpeakTUI(text, language string) error {
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	cfg.Language = language
	if cfg.Width == 0 {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			cfg.Width = uint(min(w, 120)) //nolint:gosec
		}
	}

	s, err := newSpeech(ttsConfig)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	notes := tts.NewChannelNotifier(64)
	s.Subscribe(notes)

	_, runErr := ui.NewProgram(cfg, s.Dispatcher, notes.C(), text).Run()

	// Keep delivery flowing while the dispatcher shuts down.
	go func() {
		for range notes.C() { //nolint:revive
		}
	}()

	if runErr != nil {
		return fmt.Errorf("unable to run tui program: %w", runErr)
	}
	return nil
}

// runSpeakPlain speaks text and writes every word to w as it is spoken.
// An interrupt stops speech.
func runSpeakPlain(ctx context.Context, w io.Writer, text, language string) error {
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

	s.SetAwaitSpeakCompletion(true)
	s.Subscribe(tts.NotifierFunc(func(n tts.Notification) {
		switch n.Kind {
		case tts.NotifyProgress:
			_, _ = fmt.Fprint(w, n.Word+" ")
		case tts.NotifyComplete, tts.NotifyCancel:
			_, _ = fmt.Fprintln(w)
		}
	}))

	err = s.SpeakContext(ctx, text, language)
	switch {
	case ctx.Err() != nil:
		s.Stop()
		return nil
	case errors.Is(err, tts.ErrCanceled):
		return nil
	case err != nil:
		log.Debug("speak failed", "language", language, "err", err)
		return err
	}
	return nil
}
