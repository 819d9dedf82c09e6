package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"feed_triage/internal/domain"
	"feed_triage/internal/model"
	"feed_triage/internal/scheduler"
	"feed_triage/internal/service"
	"feed_triage/internal/source/jsondb"
)

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Rank unread feed entries by how likely you are to like them",
		Long: `triage learns from the entries you liked and disliked and splits the
unread ones into an important list and everything else.

Train a model once with "triage train", then run "triage rank" or keep
"triage watch" running to refresh the split as entries arrive.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")

	cmd.AddCommand(
		importCmd(&configPath),
		modelsCmd(&configPath),
		trainCmd(&configPath),
		rankCmd(&configPath),
		watchCmd(&configPath),
		markCmd(&configPath),
		affinityCmd(&configPath),
	)
	return cmd
}

func importCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Import an entry directory of JSON files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := jsondb.New(args[0], a.logger).FetchEntries(ctx)
			if err != nil {
				return err
			}
			n, err := a.service.Import(ctx, records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries\n", n)
			return nil
		},
	}
}

func modelsCmd(configPath *string) *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the available models and how well they fit your history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			evals, err := a.service.Evaluate(ctx, analyze)
			if err != nil {
				return err
			}
			printEvaluations(cmd.OutOrStdout(), evals)
			return nil
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", true, "fit every valid model to report its quality")
	return cmd
}

func trainCmd(configPath *string) *cobra.Command {
	var refine bool

	cmd := &cobra.Command{
		Use:   "train <model>",
		Short: "Fit a model and select it for ranking",
		Long:  "Fit a model and select it for ranking. Models: " + fmt.Sprint(model.Names()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			var sel model.Selector
			if refine {
				sel = newLineSelector(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			result, err := a.service.Train(ctx, args[0], sel)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s selected: %s\n", result.Model.Title(), model.Summary(result.Model))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refine, "refine", false, "review the learned selection interactively")
	return cmd
}

func rankCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "Split the unread entries with the selected model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			ranking, err := a.service.RankUnread(ctx)
			if errors.Is(err, service.ErrNoSelection) {
				return fmt.Errorf("%w: run \"triage train <model>\" first", err)
			}
			if err != nil {
				return err
			}
			printRanking(cmd.OutOrStdout(), ranking)
			return nil
		},
	}
}

func watchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rank the unread entries now and on every watch interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath, true)
			if err != nil {
				return err
			}
			defer a.Close()

			sched := scheduler.NewScheduler(a.service, a.cfg.Triage.WatchInterval, a.cfg.Triage.RankTimeout, a.logger)
			a.logger.Info("starting feed triage",
				"interval", a.cfg.Triage.WatchInterval,
				"driver", a.cfg.Storage.Driver,
				"publish", a.cfg.RabbitMQ.Enabled(),
			)
			if err := sched.Start(ctx); err != nil && !isCanceled(err) {
				return err
			}
			return nil
		},
	}
}

func markCmd(configPath *string) *cobra.Command {
	var clicked []string

	cmd := &cobra.Command{
		Use:   "mark <guid> <liked|disliked|skipped|unread>",
		Short: "Record your verdict on an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := domain.ParseStatus(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.service.Mark(ctx, args[0], status, clicked)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", rec.GUID, rec.Status)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&clicked, "click", nil, "link opened from the entry (repeatable)")
	return cmd
}

func affinityCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "affinity",
		Short: "Show the tags and link domains you like most",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, *configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			aff, err := a.service.Affinity(ctx)
			if err != nil {
				return err
			}
			printAffinity(cmd.OutOrStdout(), aff)
			return nil
		},
	}
}

func printEvaluations(w io.Writer, evals []service.Evaluation) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODEL\tQUALITY\tLAST TRAINED\tNEEDS")
	for _, ev := range evals {
		last := "-"
		if ev.LastRun != nil {
			last = ev.LastRun.TrainedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ev.Name, ev.Title, ev.Summary, last, ev.MinData)
	}
	tw.Flush()

	for _, ev := range evals {
		if ev.Err != nil {
			fmt.Fprintf(w, "\n%s: %v\n", ev.Name, ev.Err)
		}
	}
}

func printRanking(w io.Writer, r *domain.Ranking) {
	fmt.Fprintf(w, "Important (%d)\n", len(r.High))
	printScored(w, r.High)
	fmt.Fprintf(w, "\nOther (%d)\n", len(r.Low))
	printScored(w, r.Low)
}

func printScored(w io.Writer, scored []domain.Scored) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, s := range scored {
		published := time.Unix(s.Entry.Timestamp, 0).Local().Format(time.DateOnly)
		fmt.Fprintf(tw, "  %+.3f\t%s\t%s\t%s\n", s.Score, published, s.Entry.Title, s.Entry.GUID)
	}
	tw.Flush()
}

func printAffinity(w io.Writer, aff *service.Affinity) {
	fmt.Fprintf(w, "Liked %.1f%% of triaged entries\n", aff.LikeRatio*100)
	printLabels(w, "TAG", aff.Tags)
	printLabels(w, "DOMAIN", aff.Domains)
}

func printLabels(w io.Writer, heading string, stats []service.LabelStat) {
	if len(stats) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tLIKES\tSEEN\tRATIO\n", heading)
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f%%\n", s.Label, s.Likes, s.Occurrences, s.Ratio*100)
	}
	tw.Flush()
}
