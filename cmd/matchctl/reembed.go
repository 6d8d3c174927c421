package main

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/container"
)

var reembedCmd = &cobra.Command{
	Use:   "reembed [user ids...]",
	Short: "Rebuild profiles from stored answers, e.g. after switching embedding model",
	RunE: func(cmd *cobra.Command, args []string) error {
		concurrency, err := cmd.Flags().GetInt("concurrency")
		if err != nil {
			return err
		}
		if concurrency < 1 {
			return fmt.Errorf("concurrency must be positive")
		}

		return withContainer(cmd.Context(), func(c *container.Container) error {
			ctx := cmd.Context()
			ids := args
			if len(ids) == 0 {
				if ids, err = c.Repositories.Assessments.ListUserIDs(ctx); err != nil {
					return fmt.Errorf("listing assessments: %w", err)
				}
			}

			var done, failed atomic.Int64
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(concurrency)
			for _, id := range ids {
				g.Go(func() error {
					if _, err := c.AssessmentUseCase.Regenerate(gctx, id); err != nil {
						failed.Add(1)
						c.Logger.Warn("re-embedding failed", zap.String("user_id", id), zap.Error(err))
						return nil
					}
					done.Add(1)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "re-embedded %d profiles, %d failed, model %s\n",
				done.Load(), failed.Load(), c.Embedder.Model())
			if failed.Load() > 0 {
				return fmt.Errorf("%d profiles could not be re-embedded", failed.Load())
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(reembedCmd)

	reembedCmd.Flags().Int("concurrency", 2, "profiles re-embedded in parallel")
}
