package notification

import (
	"context"
	"log/slog"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/notification/inbound"
	"github.com/hatolabs/hato/internal/notification/outbound/db"
	"github.com/hatolabs/hato/internal/notification/outbound/pref"
	"github.com/hatolabs/hato/internal/notification/outbound/sender"
	"github.com/hatolabs/hato/internal/notification/usecase"
	"github.com/hatolabs/hato/internal/pkg/clock"
	"github.com/hatolabs/hato/internal/pkg/config"
	"github.com/hatolabs/hato/internal/pkg/goroutine"
	"github.com/hatolabs/hato/internal/pkg/idempotency"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"github.com/hatolabs/hato/internal/pkg/mail"
	"github.com/hatolabs/hato/internal/pkg/messaging"
	"github.com/hatolabs/hato/internal/pkg/router"
	"github.com/hatolabs/hato/internal/pkg/storage"
	"github.com/hatolabs/hato/internal/pkg/uid"
	"github.com/hatolabs/hato/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool
	Redis      *redis.Client
	Messaging  messaging.Messaging
	Config     config.Config
	Instrument instrument.Instrumentation
	Idem       idempotency.Idempotency
	UID        uid.NumberID
	UUID       uid.StringID
	OID        uid.StringID
	Clock      clock.Clocker
	Goroutine  *goroutine.Manager
	Validator  validator.Validator
	Router     *router.Router
	Mail       mail.Mail
	Storage    storage.Storage
	Logger     *slog.Logger
}

func New(dep Dependency) error {
	cfg := dep.Config

	dbNotif := db.NewDB(dep.DBConn, dep.Instrument)
	prefStore := pref.NewStore(dbNotif, dep.Redis, cfg.GetSecond("modules.notification.pref_cache_ttl"), dep.Instrument)

	// The in-app sender publishes to usecase-held streams; the usecase
	// itself depends on the engine, so the stream hook binds late.
	var uc *usecase.Usecase
	publishInbox := func(userID int64, item entity.InboxItem) {
		if uc != nil {
			uc.PublishInbox(userID, item)
		}
	}

	senders := []engine.Sender{
		sender.NewEmail(dep.Mail, dep.Storage, sender.EmailConfig{
			From:             cfg.GetString("modules.notification.email.from"),
			AttachmentBucket: cfg.GetString("modules.notification.email.attachment_bucket"),
			AttachmentExpiry: cfg.GetSecond("modules.notification.email.attachment_expiry"),
		}, dep.Instrument),
		sender.NewSMS(
			cfg.GetString("modules.notification.sms.url"),
			cfg.GetString("modules.notification.sms.api_key"),
			cfg.GetSecond("modules.notification.sms.timeout"),
			dep.Instrument,
		),
		sender.NewWhatsApp(
			cfg.GetString("modules.notification.whatsapp.url"),
			cfg.GetString("modules.notification.whatsapp.api_key"),
			cfg.GetSecond("modules.notification.whatsapp.timeout"),
			dep.Instrument,
		),
		sender.NewPush(
			cfg.GetString("modules.notification.push.url"),
			cfg.GetString("modules.notification.push.api_key"),
			cfg.GetSecond("modules.notification.push.timeout"),
			dep.Instrument,
		),
		sender.NewWebhook(
			cfg.GetString("modules.notification.webhook.secret"),
			cfg.GetSecond("modules.notification.webhook.timeout"),
			dep.Clock,
			dep.Instrument,
		),
		sender.NewInApp(dbNotif, publishInbox, dep.Instrument),
	}

	// unset key falls back to the engine default; an explicit 0 means
	// "resume at midnight"
	var quietResume *int
	if cfg.GetString("modules.notification.quiet_resume_hour") != "" {
		quietResume = lo.ToPtr(cfg.GetInt("modules.notification.quiet_resume_hour"))
	}

	eng := engine.New(engine.Dependency{
		Config: engine.Config{
			TickInterval:      cfg.GetSecond("modules.notification.tick_interval"),
			EmailTickInterval: cfg.GetSecond("modules.notification.email_tick_interval"),
			EmailRetryDelay:   cfg.GetSecond("modules.notification.email_retry_delay"),
			EmailMaxAttempts:  cfg.GetInt("modules.notification.email_max_attempts"),
			BulkChunkSize:     cfg.GetInt("modules.notification.bulk_chunk_size"),
			Retention:         cfg.GetSecond("modules.notification.retention"),
			MaxRetained:       cfg.GetInt("modules.notification.max_retained"),
			QuietResumeHour:   quietResume,
			StatsWindow:       cfg.GetSecond("modules.notification.stats_window"),
		},
		Clock:   dep.Clock,
		UID:     dep.UID,
		UUID:    dep.OID, // batch ids are compact object ids
		Prefs:   prefStore,
		Senders: senders,
		Logger:  dep.Logger,
	})

	uc = usecase.NewNotification(usecase.Dependency{
		RepoDB:      dbNotif,
		Prefs:       prefStore,
		Engine:      eng,
		Clock:       dep.Clock,
		Validator:   dep.Validator,
		Idempotency: dep.Idem,
		Instrument:  dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)
	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, cfg, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)

		dep.Goroutine.Go(dep.Ctx, func(ctx context.Context) error {
			eng.Run(ctx)
			return nil
		})
		dep.Goroutine.Go(dep.Ctx, uc.RecordDeliveries)
	}

	return nil
}
