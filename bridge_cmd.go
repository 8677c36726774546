package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/bridge"
	"github.com/dgnsrekt/lingo/internal/watch"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	bridgeNoWatch bool

	bridgeCmd = &cobra.Command{
		Use:   "bridge",
		Short: "Serve speech requests as JSON lines on stdin and stdout",
		Long: paragraph(fmt.Sprintf("\n%s requests from a host process. Each line on stdin is one request, each answer and lifecycle event is one line on stdout. With the piper engine, new voice models are picked up as they are installed.", keyword("Serve"))),
		Example: paragraph(`echo '{"id":1,"method":"getLanguages"}' | lingo bridge`),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			server := bridge.NewServer(s.Dispatcher, os.Stdout, log.WithPrefix("bridge"))
			s.Subscribe(server)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				return server.Serve(ctx, os.Stdin)
			})
			g.Go(func() error {
				// Restore the default handler so a second interrupt exits
				// while Serve is blocked reading.
				<-ctx.Done()
				cancel()
				return nil
			})

			if dir := ttsConfig.Piper.ModelDir; ttsConfig.Engine == "piper" && dir != "" && !bridgeNoWatch {
				w, err := watch.New(dir, func() {
					if err := s.EnterForeground(); err != nil {
						log.Warn("unable to refresh voices", "dir", dir, "err", err)
					}
				}, watch.WithLogger(log.WithPrefix("watch")))
				if err != nil {
					log.Warn("not watching voice models", "err", err)
				} else {
					g.Go(func() error { return w.Run(ctx) })
				}
			}

			return g.Wait()
		},
	}
)

func init() {
	bridgeCmd.Flags().BoolVar(&bridgeNoWatch, "no-watch", false, "do not watch the voice model directory")
}
