package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"mindgap-tutor/internal/app"
	"mindgap-tutor/internal/config"
	"mindgap-tutor/internal/infra/file"
	"mindgap-tutor/internal/infra/memory"
	"mindgap-tutor/internal/logger"
	"mindgap-tutor/internal/transport/console"
)

type playOptions struct {
	topic      string
	difficulty string
	deck       string
	verbose    bool
}

// NewPlayCmd runs a single quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Take a micro-lesson quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.topic, "topic", "t", "", "topic to learn")
	cmd.Flags().StringVarP(&opts.difficulty, "difficulty", "d", "", "beginner, intermediate or advanced")
	cmd.Flags().StringVar(&opts.deck, "deck", "", "YAML quiz file to play instead of configured sources")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func runPlay(ctx context.Context, configPath string, opts *playOptions, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.NewNop()
	if opts.verbose {
		if log, err = logger.New(cfg.Log.Mode); err != nil {
			return err
		}
		defer log.Sync()
	}

	d, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	var loader memory.QuizLoader
	if opts.deck != "" {
		if loader, err = file.NewQuizLoader(opts.deck); err != nil {
			return err
		}
	} else if loader, err = d.quizLoader(cfg); err != nil {
		return err
	}

	svcOpts, err := serviceOptions(cfg)
	if err != nil {
		return err
	}
	quizzes := memory.NewQuizRepository(loader, config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute))
	service := app.NewTutorService(memory.NewSessionStore(), quizzes, d.reporters(cfg, log), log, svcOpts...)
	defer service.Wait()

	if d.backend != nil {
		fmt.Fprintf(out, "Generating a lesson on %s...\n", opts.topic)
	}
	started, err := service.Start(ctx, opts.topic, opts.difficulty)
	if err != nil {
		return err
	}
	defer service.Abandon(ctx, started.State.SessionID)

	_, err = console.NewRenderer(service, in, out).Run(ctx, started)
	return err
}
