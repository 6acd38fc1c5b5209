package main

import (
	"github.com/spf13/cobra"

	"github.com/zanon-app/zanon/internal/db"
	"github.com/zanon-app/zanon/internal/push"
	"github.com/zanon-app/zanon/internal/reminders"
)

var sendRemindersCmd = &cobra.Command{
	Use:   "send-reminders",
	Short: "Run the daily reminder sweep",
	Long: `Sends streak-rescue pushes to users who practiced yesterday but
not yet today, and heads-up pushes for live events happening tomorrow.
Intended to run once a day from cron.`,
	RunE: runSendReminders,
}

func init() {
	rootCmd.AddCommand(sendRemindersCmd)
}

func runSendReminders(cmd *cobra.Command, args []string) error {
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

	dispatcher := push.NewDispatcher(database.Push(),
		cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subscriber, log)

	job, err := reminders.NewJob(database.Practice(), database.Live(),
		dispatcher, cfg.App.Timezone, log)
	if err != nil {
		return err
	}
	return job.Run(ctx)
}
