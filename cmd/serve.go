package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-fit/internal/server"
	"github.com/spigell/resume-fit/internal/session"
	"github.com/spigell/resume-fit/internal/taxonomy"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")

	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func runServe() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume-fit server", zap.String("version", version))

	registry, err := buildRegistry(config, logger)
	if err != nil {
		logger.Fatal("loading taxonomies", zap.Error(err))
	}

	scorer, advisor, err := newAI(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("ai features are disabled", zap.Error(err))
	}

	srv, err := server.New(server.Options{
		Registry:   registry,
		Sessions:   session.NewStore(),
		Scorer:     scorer,
		Advisor:    advisor,
		SessionTTL: config.Server.SessionTTL,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("creating the server", zap.Error(err))
	}

	watchTaxonomies(registry, logger)

	if err := srv.Run(ctx, config.Server.Listen); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}

// watchTaxonomies reloads the custom taxonomies whenever the config file
// changes. An invalid file keeps the active tables.
func watchTaxonomies(registry *taxonomy.Registry, logger *zap.Logger) {
	if viper.ConfigFileUsed() == "" {
		logger.Debug("no config file in use, taxonomy reload disabled")
		return
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		reloadTaxonomies(registry, logger.With(
			zap.String("filename", e.Name),
			zap.String("op", e.Op.String()),
		))
	})
	viper.WatchConfig()
}

func reloadTaxonomies(registry *taxonomy.Registry, logger *zap.Logger) {
	config, err := getConfig()
	if err != nil {
		logger.Warn("ignoring config change", zap.Error(err))
		return
	}

	resume, job, err := loadTaxonomies(config)
	if err != nil {
		logger.Warn("ignoring config change", zap.Error(err))
		return
	}

	registry.Set(resume, job)

	r, j := registry.Snapshot()
	logger.Info("taxonomies reloaded",
		zap.Int("resume_domains", r.Len()),
		zap.Int("job_domains", j.Len()),
	)
}
