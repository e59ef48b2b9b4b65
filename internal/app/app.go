// Package app wires configuration into the running object graph shared by
// the server and worker binaries.
package app

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/emailbuilder/emailbuilder/internal/builder"
	"github.com/emailbuilder/emailbuilder/internal/cache"
	"github.com/emailbuilder/emailbuilder/internal/config"
	"github.com/emailbuilder/emailbuilder/internal/database"
	"github.com/emailbuilder/emailbuilder/internal/email"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/metrics"
	"github.com/emailbuilder/emailbuilder/internal/queue"
	"github.com/emailbuilder/emailbuilder/internal/repository"
	"github.com/emailbuilder/emailbuilder/internal/service"
)

// Container holds long-lived dependencies
type Container struct {
	DB        *database.Postgres
	Redis     *database.Redis
	Templates *service.TemplateService
	Mail      *service.MailService
	Processor *queue.Processor

	taskClient *asynq.Client
}

// Build connects to PostgreSQL and Redis and constructs every service
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if err := metrics.Register(nil); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info().Msg("connected to PostgreSQL")

	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Info().Msg("connected to Redis")

	templateRepo := repository.NewTemplateRepository(db, cfg.Template.BodyColumnType)
	globalRepo := repository.NewGlobalTemplateRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db, cfg.Recipients.UserTable, cfg.Recipients.IDColumn, cfg.Recipients.EmailColumn)

	templateCache := cache.New(cfg.Template.Cache, rdb)
	var finder builder.TemplateFinder = templateRepo
	if templateCache != nil {
		finder = cache.NewCachedStore(templateRepo, templateCache, log)
		log.Info().Str("driver", cfg.Template.Cache.Driver).Msg("template cache enabled")
	}

	sender, err := email.NewSender(ctx, cfg.Email, log)
	if err != nil {
		rdb.Close()
		db.Close()
		return nil, fmt.Errorf("failed to initialize email sender: %w", err)
	}
	log.Info().Str("provider", cfg.Email.Provider).Msg("email sender initialized")

	taskClient := asynq.NewClient(queue.RedisOpt(cfg.Redis))

	renderer := builder.NewRenderer(finder, globalRepo)
	mail := service.NewMailService(
		renderer,
		email.NewLayoutRenderer(cfg.Email.AssetBaseURL),
		sender,
		userRepo,
		queue.NewClient(taskClient, cfg.Queue.Name),
		log,
	)

	return &Container{
		DB:         db,
		Redis:      rdb,
		Templates:  service.NewTemplateService(templateRepo, globalRepo, templateCache, log).WithAuditStore(auditRepo),
		Mail:       mail,
		Processor:  queue.NewProcessor(mail, log),
		taskClient: taskClient,
	}, nil
}

// Close releases every connection held by the container
func (c *Container) Close() {
	c.taskClient.Close()
	c.Redis.Close()
	c.DB.Close()
}
