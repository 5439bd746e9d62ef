package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hatolabs/hato/internal/pkg/goerror"
)

type (
	DeviceRegisterInput struct {
		DeviceToken string `validate:"required"`
		Platform    string `validate:"required,oneof=android ios web"`
	}

	DeviceRemoveInput struct {
		DeviceToken string `validate:"required"`
	}
)

func (s *Usecase) DeviceRegister(ctx context.Context, in DeviceRegisterInput) error {
	ctx, span := s.startSpan(ctx, "DeviceRegister")
	defer span.End()

	in.DeviceToken = strings.TrimSpace(in.DeviceToken)
	in.Platform = strings.ToLower(strings.TrimSpace(in.Platform))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.repoDB.RegisterDevice(ctx, clm.UserID, in.DeviceToken, in.Platform); err != nil {
		slog.ErrorContext(ctx, "failed to repo register device token", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

func (s *Usecase) DeviceRemove(ctx context.Context, in DeviceRemoveInput) error {
	ctx, span := s.startSpan(ctx, "DeviceRemove")
	defer span.End()

	in.DeviceToken = strings.TrimSpace(in.DeviceToken)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if _, err := s.requireAuth(ctx); err != nil {
		return err
	}

	if err := s.repoDB.RemoveDevice(ctx, in.DeviceToken); err != nil {
		slog.ErrorContext(ctx, "failed to repo remove device token", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
