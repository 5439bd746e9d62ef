package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/clock"
	"github.com/hatolabs/hato/internal/pkg/goerror"
	"github.com/hatolabs/hato/internal/pkg/idempotency"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"github.com/hatolabs/hato/internal/pkg/jwt"
	"github.com/hatolabs/hato/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

// stubRepo is an in-memory repoDB.
type stubRepo struct {
	mu sync.Mutex

	tokens       map[int64][]string
	byRole       map[string][]entity.Recipient
	byRoleErr    error
	inbox        []entity.InboxItem
	deliveryLogs []entity.DeliveryLog

	registered []string
	removed    []string
}

func (r *stubRepo) RegisterDevice(_ context.Context, _ int64, deviceToken, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered = append(r.registered, deviceToken)
	return nil
}

func (r *stubRepo) RemoveDevice(_ context.Context, deviceToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, deviceToken)
	return nil
}

func (r *stubRepo) ListDeviceTokens(_ context.Context, userID int64) ([]string, error) {
	return r.tokens[userID], nil
}

func (r *stubRepo) ListRecipientsByRole(_ context.Context, role string, _ int64) ([]entity.Recipient, error) {
	if r.byRoleErr != nil {
		return nil, r.byRoleErr
	}
	return r.byRole[role], nil
}

func (r *stubRepo) ListInbox(_ context.Context, _ int64, _ entity.InboxStatus, _, _ int32) ([]entity.InboxItem, error) {
	return r.inbox, nil
}

func (r *stubRepo) CountUnreadInbox(_ context.Context, _ int64) (int64, error) {
	return int64(len(r.inbox)), nil
}

func (r *stubRepo) MarkInboxRead(_ context.Context, _, _ int64) (bool, error)  { return true, nil }
func (r *stubRepo) MarkInboxReadAll(_ context.Context, _ int64) (int64, error) { return 0, nil }
func (r *stubRepo) SoftDeleteInbox(_ context.Context, _, _ int64) (bool, error) {
	return true, nil
}

func (r *stubRepo) ListDeliveryLogs(_ context.Context, _ int64) ([]entity.DeliveryLog, error) {
	return r.deliveryLogs, nil
}

func (r *stubRepo) CreateDeliveryLog(_ context.Context, dl entity.DeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveryLogs = append(r.deliveryLogs, dl)
	return nil
}

// stubPrefStore holds one stored preference.
type stubPrefStore struct {
	stored  *entity.Preference
	getErr  error
	updated *entity.Preference
}

func (s *stubPrefStore) Get(_ context.Context, _ int64) (*entity.Preference, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.stored, nil
}

func (s *stubPrefStore) Update(_ context.Context, pref *entity.Preference) error {
	s.updated = pref
	return nil
}

// stubEngine records submissions instead of delivering them.
type stubEngine struct {
	mu        sync.Mutex
	submitted []engine.SubmitInput
	submitErr error
	nextID    int64

	cancelErr error
	statusJob *entity.Job
	statusErr error
}

func (e *stubEngine) Submit(_ context.Context, in engine.SubmitInput) (int64, error) {
	if e.submitErr != nil {
		return 0, e.submitErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.submitted = append(e.submitted, in)
	return e.nextID, nil
}

func (e *stubEngine) SubmitBulk(_ context.Context, in engine.SubmitInput) (engine.BulkResult, error) {
	if e.submitErr != nil {
		return engine.BulkResult{}, e.submitErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.submitted = append(e.submitted, in)
	return engine.BulkResult{BatchID: "batch", JobIDs: []int64{e.nextID}, Chunks: 1}, nil
}

func (e *stubEngine) Cancel(_ context.Context, _ int64) error { return e.cancelErr }

func (e *stubEngine) Status(_ context.Context, _ int64) (*entity.Job, error) {
	return e.statusJob, e.statusErr
}

func (e *stubEngine) Subscribe(_ context.Context) <-chan engine.Event {
	return make(chan engine.Event)
}

func (e *stubEngine) Stats() engine.Snapshot { return engine.Snapshot{} }

func (e *stubEngine) lastSubmitted(t *testing.T) engine.SubmitInput {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	require.NotEmpty(t, e.submitted)
	return e.submitted[len(e.submitted)-1]
}

// recordingIdem runs the callback and records the keys it saw.
type recordingIdem struct {
	mu   sync.Mutex
	keys []string
}

func (i *recordingIdem) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return idempotency.StateNone, nil
}

func (i *recordingIdem) MarkCompleted(context.Context, string, time.Duration) error { return nil }

func (i *recordingIdem) MarkFailed(context.Context, string, time.Duration) error { return nil }

func (i *recordingIdem) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	i.mu.Lock()
	i.keys = append(i.keys, key)
	i.mu.Unlock()
	return fn(ctx)
}

func newTestUsecase(t *testing.T, repo *stubRepo, prefs *stubPrefStore, eng *stubEngine) (*Usecase, *recordingIdem) {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	idem := &recordingIdem{}
	uc := NewNotification(Dependency{
		RepoDB:      repo,
		Prefs:       prefs,
		Engine:      eng,
		Clock:       clock.New(),
		Validator:   v,
		Idempotency: idem,
		Instrument:  instrument.NewNoop(),
	})

	return uc, idem
}

func authedCtx(userID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{UserID: userID})
}

func requireBusinessCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, code, gerr.Code())
}
