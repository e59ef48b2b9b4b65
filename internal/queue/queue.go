// Package queue runs template sends as asynq background tasks.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/emailbuilder/emailbuilder/internal/builder"
	"github.com/emailbuilder/emailbuilder/internal/config"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/service"
)

// TypeEmailSend is the task type for a templated send
const TypeEmailSend = "email:send"

// SendPayload is the JSON body of an email:send task
type SendPayload struct {
	Recipient model.Recipient   `json:"recipient"`
	Key       string            `json:"key"`
	Data      map[string]string `json:"data,omitempty"`
}

// RedisOpt builds the asynq connection options from the shared Redis config
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// Enqueuer is the subset of *asynq.Client used by Client
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client enqueues send tasks
type Client struct {
	enqueuer Enqueuer
	queue    string
}

// NewClient creates a new Client that enqueues onto the named queue
func NewClient(enqueuer Enqueuer, queue string) *Client {
	return &Client{enqueuer: enqueuer, queue: queue}
}

// EnqueueSend schedules a send. Failed sends are not retried.
func (c *Client) EnqueueSend(ctx context.Context, recipient model.Recipient, key string, data map[string]string) (string, error) {
	payload, err := json.Marshal(SendPayload{Recipient: recipient, Key: key, Data: data})
	if err != nil {
		return "", fmt.Errorf("failed to marshal send payload: %w", err)
	}

	info, err := c.enqueuer.EnqueueContext(ctx, asynq.NewTask(TypeEmailSend, payload),
		asynq.Queue(c.queue),
		asynq.MaxRetry(0),
	)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Mailer delivers a rendered template
type Mailer interface {
	SendByKey(ctx context.Context, recipient model.Recipient, key string, data map[string]string) (*model.RenderedEmail, error)
}

// Processor handles send tasks
type Processor struct {
	mailer Mailer
	log    *logger.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(mailer Mailer, log *logger.Logger) *Processor {
	return &Processor{
		mailer: mailer,
		log:    log.WithComponent("send_worker"),
	}
}

// HandleSendTask renders and delivers one email:send task. Errors that a
// retry cannot fix are wrapped with asynq.SkipRetry.
func (p *Processor) HandleSendTask(ctx context.Context, t *asynq.Task) error {
	var payload SendPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal send payload: %v: %w", err, asynq.SkipRetry)
	}

	_, err := p.mailer.SendByKey(ctx, payload.Recipient, payload.Key, payload.Data)
	if err == nil {
		return nil
	}

	if errors.Is(err, builder.ErrTemplateNotFound) ||
		errors.Is(err, service.ErrInvalidRecipient) ||
		errors.Is(err, service.ErrRecipientNotFound) {
		log := p.log
		if id, ok := asynq.GetTaskID(ctx); ok {
			log = log.WithTaskID(id)
		}
		log.Warn().Err(err).
			Str("template_key", payload.Key).
			Str("recipient", payload.Recipient.String()).
			Msg("dropping send task")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// NewServeMux registers the processor's handlers
func NewServeMux(p *Processor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailSend, p.HandleSendTask)
	return mux
}

// NewServer creates an asynq server consuming the configured queue
func NewServer(redisCfg config.RedisConfig, cfg config.QueueConfig, log *logger.Logger) *asynq.Server {
	l := log.WithComponent("asynq")
	return asynq.NewServer(RedisOpt(redisCfg), asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{cfg.Name: 1},
		Logger:      asynqLogger{l},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			l.Error().Err(err).Str("task_type", task.Type()).Msg("task failed")
		}),
	})
}

// asynqLogger adapts the application logger to asynq.Logger
type asynqLogger struct {
	log *logger.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.log.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.log.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.log.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.log.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.log.Fatal().Msg(fmt.Sprint(args...)) }
