package usecase

import (
	"context"
	"sync"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/clock"
	"github.com/hatolabs/hato/internal/pkg/idempotency"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"github.com/hatolabs/hato/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	RegisterDevice(ctx context.Context, userID int64, deviceToken, platform string) error
	RemoveDevice(ctx context.Context, deviceToken string) error
	ListDeviceTokens(ctx context.Context, userID int64) ([]string, error)

	ListRecipientsByRole(ctx context.Context, role string, ranchID int64) ([]entity.Recipient, error)

	ListInbox(ctx context.Context, userID int64, status entity.InboxStatus, limit, offset int32) ([]entity.InboxItem, error)
	CountUnreadInbox(ctx context.Context, userID int64) (int64, error)
	MarkInboxRead(ctx context.Context, userID, itemID int64) (bool, error)
	MarkInboxReadAll(ctx context.Context, userID int64) (int64, error)
	SoftDeleteInbox(ctx context.Context, userID, itemID int64) (bool, error)

	ListDeliveryLogs(ctx context.Context, jobID int64) ([]entity.DeliveryLog, error)
	CreateDeliveryLog(ctx context.Context, dl entity.DeliveryLog) error
}

type prefStore interface {
	Get(ctx context.Context, userID int64) (*entity.Preference, error)
	Update(ctx context.Context, pref *entity.Preference) error
}

type delivery interface {
	Submit(ctx context.Context, in engine.SubmitInput) (int64, error)
	SubmitBulk(ctx context.Context, in engine.SubmitInput) (engine.BulkResult, error)
	Cancel(ctx context.Context, id int64) error
	Status(ctx context.Context, id int64) (*entity.Job, error)
	Subscribe(ctx context.Context) <-chan engine.Event
	Stats() engine.Snapshot
}

type Usecase struct {
	repoDB    repoDB
	prefs     prefStore
	engine    delivery
	clock     clock.Clocker
	validator validator.Validator
	idem      idempotency.Idempotency
	ins       instrument.Instrumentation
	streamMu  sync.RWMutex
	streams   map[int64]map[*subscriber]struct{}
}

type Dependency struct {
	RepoDB      repoDB
	Prefs       prefStore
	Engine      delivery
	Clock       clock.Clocker
	Validator   validator.Validator
	Idempotency idempotency.Idempotency
	Instrument  instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		prefs:     dep.Prefs,
		engine:    dep.Engine,
		clock:     dep.Clock,
		validator: dep.Validator,
		idem:      dep.Idempotency,
		ins:       dep.Instrument,
		streams:   make(map[int64]map[*subscriber]struct{}),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}
