package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/achievements"
	"github.com/zanon-app/zanon/internal/db"
)

var seedAchievementsCmd = &cobra.Command{
	Use:   "seed-achievements",
	Short: "Upsert the badge catalog",
	Long: `Writes the built-in achievement definitions to the database.
Safe to re-run; existing rows are updated in place and earned badges
are untouched.`,
	RunE: runSeedAchievements,
}

func init() {
	rootCmd.AddCommand(seedAchievementsCmd)
}

func runSeedAchievements(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	database, err := db.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer database.Close()

	created := 0
	for i := range achievements.Catalog {
		def := achievements.Catalog[i]
		wasCreated, err := database.Achievements().UpsertDefinition(ctx, &def)
		if err != nil {
			return err
		}
		if wasCreated {
			created++
		}
	}
	log.Info("badge catalog seeded",
		zap.Int("total", len(achievements.Catalog)),
		zap.Int("created", created),
	)
	return nil
}
