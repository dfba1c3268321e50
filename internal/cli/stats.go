package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mindgap-tutor/internal/config"
	"mindgap-tutor/internal/domain"
	"mindgap-tutor/internal/infra/backend"
)

// NewStatsCmd prints the progress dashboard kept by the backend.
func NewStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show weak topics and quiz history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Backend.URL == "" {
				return fmt.Errorf("backend url not configured")
			}
			client := backend.NewClient(cfg.Backend.URL, config.TTLDuration(cfg.Backend.Timeout, 30*time.Second))
			return printStats(cmd.Context(), client, cmd.OutOrStdout())
		},
	}
}

type statsSource interface {
	Stats(ctx context.Context) (domain.Stats, error)
}

func printStats(ctx context.Context, src statsSource, out io.Writer) error {
	stats, err := src.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Weak topics:")
	if len(stats.WeakTopics) == 0 {
		fmt.Fprintln(out, "  none yet")
	}
	for _, w := range stats.WeakTopics {
		fmt.Fprintf(out, "  %s (missed %d times)\n", w.Topic, w.Frequency)
	}

	fmt.Fprintln(out, "\nHistory:")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  TOPIC\tLEVEL\tSCORE\tDATE")
	for _, h := range stats.History {
		fmt.Fprintf(tw, "  %s\t%s\t%d/%d\t%s\n", h.Topic, h.Level, h.Score, h.Total, h.Date)
	}
	return tw.Flush()
}
