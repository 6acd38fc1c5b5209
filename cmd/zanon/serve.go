package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zanon-app/zanon/internal/achievements"
	"github.com/zanon-app/zanon/internal/advice"
	"github.com/zanon-app/zanon/internal/catalog"
	"github.com/zanon-app/zanon/internal/chat"
	"github.com/zanon-app/zanon/internal/config"
	"github.com/zanon-app/zanon/internal/db"
	"github.com/zanon-app/zanon/internal/gemini"
	"github.com/zanon-app/zanon/internal/push"
	"github.com/zanon-app/zanon/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	deps, err := buildDeps(ctx, cfg, database, log)
	if err != nil {
		return err
	}

	server, err := web.NewServer(web.Config{
		Addr:            cfg.Server.Addr,
		Timezone:        cfg.App.Timezone,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, deps)
	if err != nil {
		return err
	}
	return server.Run()
}

// buildDeps wires the service graph shared by serve and the jobs.
func buildDeps(ctx context.Context, cfg *config.Config, database *db.DB, log *zap.Logger) (web.Deps, error) {
	dispatcher := push.NewDispatcher(database.Push(),
		cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subscriber, log)

	evaluator, err := achievements.NewEvaluator(database.Achievements(),
		database.Practice(), database.Live(), database.Projects(),
		dispatcher, cfg.App.Timezone, log)
	if err != nil {
		return web.Deps{}, err
	}

	model := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)

	adviceSvc, err := advice.NewService(database.Advice(), database.Practice(),
		database.Live(), database.Projects(), model, cfg.App.Timezone, log)
	if err != nil {
		return web.Deps{}, err
	}

	chatSvc, err := chat.NewService(database.Chat(), database.Theory(), model,
		cfg.App.Timezone, log)
	if err != nil {
		return web.Deps{}, err
	}

	var catalogClient *catalog.Client
	if cfg.Spotify.ClientID != "" && cfg.Spotify.ClientSecret != "" {
		catalogClient = catalog.New(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.Market)
	} else {
		log.Warn("spotify credentials not configured, catalog search disabled")
	}

	return web.Deps{
		DB:         database,
		Advice:     adviceSvc,
		Chat:       chatSvc,
		Evaluator:  evaluator,
		Catalog:    catalogClient,
		Dispatcher: dispatcher,
		Log:        log,
	}, nil
}
