package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syncsphere/server/internal/config"
	"github.com/syncsphere/server/internal/factory"
	"github.com/syncsphere/server/internal/logger"
	"github.com/syncsphere/server/internal/migrate"
	"github.com/syncsphere/server/syncservice"
)

var (
	buildTarget string
	rootCmd     = &cobra.Command{
		Use:   "syncsphere",
		Short: "SyncSphere time-accounting service",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVar(&buildTarget, "build-target", "", "Override BUILD_TARGET (local, cloud)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyBuildTargetOverride()
			return syncservice.Run()
		},
	}
	rootCmd.AddCommand(serveCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "One-time data migrations",
	}
	legacyCmd := &cobra.Command{
		Use:   "legacy-day-keys",
		Short: "Re-bucket rows keyed by the old fixed-offset day normalizer",
		RunE: func(cmd *cobra.Command, args []string) error {
			applyBuildTargetOverride()
			log := logger.New("syncsphere-migrate")

			cfg, err := config.New()
			if err != nil {
				return err
			}
			ctx := context.Background()
			st, err := factory.NewStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			res, err := migrate.LegacyDayKeys(ctx, st, log)
			if err != nil {
				return err
			}
			log.Info().
				Int("users_processed", res.UsersProcessed).
				Int("users_skipped", res.UsersSkipped).
				Int("segments_rebucketed", res.SegmentsRebucketed).
				Int("totals_rekeyed", res.TotalsRekeyed).
				Msg("legacy day-key migration finished")
			return nil
		},
	}
	migrateCmd.AddCommand(legacyCmd)
	rootCmd.AddCommand(migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func applyBuildTargetOverride() {
	if buildTarget != "" {
		_ = os.Setenv("SYNCSPHERE_BUILD_TARGET", buildTarget)
	}
}
