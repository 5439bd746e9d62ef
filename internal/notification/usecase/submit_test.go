package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/hatolabs/hato/internal/notification/engine"
	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmitInput() SubmitInput {
	return SubmitInput{
		Kind:     "health_alert",
		Title:    "Health alert: NL-4821",
		Message:  "Bovine NL-4821 shows lameness.",
		Priority: "high",
		Channels: []string{"in_app", "email"},
		Recipients: []SubmitRecipientInput{
			{UserID: 10, Email: "vet@ranch.example"},
		},
	}
}

func TestSubmit(t *testing.T) {
	t.Run("RequiresAuthentication", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{})

		_, err := uc.Submit(context.Background(), validSubmitInput())

		requireBusinessCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("RejectsUnknownKind", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{})
		in := validSubmitInput()
		in.Kind = "weather_report"

		_, err := uc.Submit(authedCtx(1), in)

		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
	})

	t.Run("MapsInputToEngine", func(t *testing.T) {
		eng := &stubEngine{}
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, eng)

		out, err := uc.Submit(authedCtx(1), validSubmitInput())

		require.NoError(t, err)
		assert.EqualValues(t, 1, out.JobID)

		got := eng.lastSubmitted(t)
		assert.Equal(t, entity.KindHealthAlert, got.Kind)
		assert.Equal(t, entity.PriorityHigh, got.Priority)
		assert.Equal(t, []entity.Channel{entity.ChannelInApp, entity.ChannelEmail}, got.Channels)
		require.Len(t, got.Recipients, 1)
		assert.Equal(t, "vet@ranch.example", got.Recipients[0].Email)
		assert.Empty(t, got.Recipients[0].DeviceTokens, "tokens only resolved for push")
	})

	t.Run("ResolvesDeviceTokensForPush", func(t *testing.T) {
		repo := &stubRepo{tokens: map[int64][]string{10: {"tok-1", "tok-2"}}}
		eng := &stubEngine{}
		uc, _ := newTestUsecase(t, repo, &stubPrefStore{}, eng)

		in := validSubmitInput()
		in.Channels = []string{"push"}

		_, err := uc.Submit(authedCtx(1), in)

		require.NoError(t, err)
		got := eng.lastSubmitted(t)
		assert.Equal(t, []string{"tok-1", "tok-2"}, got.Recipients[0].DeviceTokens)
	})

	t.Run("EngineRejectionMapsToBusinessError", func(t *testing.T) {
		eng := &stubEngine{submitErr: fmt.Errorf("%w: expiry precedes schedule", engine.ErrInvalidSubmission)}
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, eng)

		_, err := uc.Submit(authedCtx(1), validSubmitInput())

		requireBusinessCode(t, err, goerror.CodeInvalidFormat)
	})
}

func TestSubmitBulk(t *testing.T) {
	t.Run("RoleSelection", func(t *testing.T) {
		repo := &stubRepo{byRole: map[string][]entity.Recipient{
			"veterinarian": {{UserID: 10}, {UserID: 11}},
		}}
		eng := &stubEngine{}
		uc, _ := newTestUsecase(t, repo, &stubPrefStore{}, eng)

		out, err := uc.SubmitBulk(authedCtx(1), SubmitBulkInput{
			Kind:     "vaccination_due",
			Title:    "Vaccination due",
			Message:  "IBR boosters due this week.",
			Channels: []string{"in_app"},
			Role:     "veterinarian",
			RanchID:  5,
		})

		require.NoError(t, err)
		assert.Equal(t, 2, out.Recipients)
		assert.Equal(t, "batch", out.BatchID)

		got := eng.lastSubmitted(t)
		require.Len(t, got.Recipients, 2)
	})

	t.Run("NoRecipientsMatched", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{})

		_, err := uc.SubmitBulk(authedCtx(1), SubmitBulkInput{
			Kind:     "system",
			Title:    "Maintenance window",
			Message:  "Planned downtime tonight.",
			Channels: []string{"in_app"},
			Role:     "worker",
		})

		requireBusinessCode(t, err, goerror.CodeNotFound)
	})

	t.Run("RequiresRoleOrRecipients", func(t *testing.T) {
		uc, _ := newTestUsecase(t, &stubRepo{}, &stubPrefStore{}, &stubEngine{})

		_, err := uc.SubmitBulk(authedCtx(1), SubmitBulkInput{
			Kind:     "system",
			Title:    "Maintenance window",
			Message:  "Planned downtime tonight.",
			Channels: []string{"in_app"},
		})

		var gerr *goerror.Error
		require.ErrorAs(t, err, &gerr)
	})
}
