package usecase

import (
	"testing"
	"time"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelJob(t *testing.T) {
	t.Run("UnknownJob", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{cancelErr: engine.ErrJobNotFound})

		err := uc.CancelJob(authedCtx(1), CancelJobInput{JobID: 404})

		requireBusinessCode(t, err, goerror.CodeNotFound)
	})

	t.Run("AlreadyDispatched", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{cancelErr: engine.ErrJobNotCancellable})

		err := uc.CancelJob(authedCtx(1), CancelJobInput{JobID: 1})

		requireBusinessCode(t, err, goerror.CodeConflict)
	})

	t.Run("Pending", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{})

		assert.NoError(t, uc.CancelJob(authedCtx(1), CancelJobInput{JobID: 1}))
	})
}

func TestJobStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	job := &entity.Job{
		ID:          9,
		Kind:        entity.KindHealthAlert,
		Title:       "Health alert: NL-4821",
		Priority:    entity.PriorityHigh,
		Status:      entity.JobStatusSent,
		Attempts:    1,
		MaxAttempts: 3,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	t.Run("IncludesDeliveryLogs", func(t *testing.T) {
		repo := &stubRepo{deliveryLogs: []entity.DeliveryLog{{JobID: 9, Channel: entity.ChannelInApp, Succeeded: 2}}}
		uc, _ := newTestUsecase(t, repo, &stubPrefStore{}, &stubEngine{statusJob: job})

		out, err := uc.JobStatus(authedCtx(1), JobStatusInput{JobID: 9})

		require.NoError(t, err)
		assert.EqualValues(t, 9, out.JobID)
		assert.Equal(t, "health_alert", out.Kind)
		assert.Equal(t, "sent", out.Status)
		require.Len(t, out.Deliveries, 1)
		assert.Equal(t, 2, out.Deliveries[0].Succeeded)
	})

	t.Run("UnknownJob", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{statusErr: engine.ErrJobNotFound})

		_, err := uc.JobStatus(authedCtx(1), JobStatusInput{JobID: 404})

		requireBusinessCode(t, err, goerror.CodeNotFound)
	})
}
