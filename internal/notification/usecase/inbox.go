package usecase

import (
	"context"
	"log/slog"

	"github.com/hatolabs/hato/internal/notification/entity"
	"github.com/hatolabs/hato/internal/pkg/goerror"
)

type (
	ListInboxInput struct {
		Status string `validate:"omitempty,oneof=all unread read"`
		Limit  int32  `validate:"omitempty,gte=1,lte=100"`
		Offset int32  `validate:"omitempty,gte=0"`
	}

	ListInboxOutput struct {
		Items       []entity.InboxItem
		UnreadCount int64
	}

	InboxActionInput struct {
		ItemID int64 `validate:"required,gt=0"`
	}
)

func (s *Usecase) ListInbox(ctx context.Context, in ListInboxInput) (*ListInboxOutput, error) {
	ctx, span := s.startSpan(ctx, "ListInbox")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	status := entity.InboxStatus(in.Status)
	if status == "" {
		status = entity.InboxStatusAll
	}
	limit := in.Limit
	if limit == 0 {
		limit = 20
	}

	items, err := s.repoDB.ListInbox(ctx, clm.UserID, status, limit, in.Offset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list inbox", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	unread, err := s.repoDB.CountUnreadInbox(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count unread inbox", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListInboxOutput{Items: items, UnreadCount: unread}, nil
}

func (s *Usecase) MarkInboxRead(ctx context.Context, in InboxActionInput) error {
	ctx, span := s.startSpan(ctx, "MarkInboxRead")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	ok, err := s.repoDB.MarkInboxRead(ctx, clm.UserID, in.ItemID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark inbox read", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		return goerror.NewBusiness("inbox item not found or already read", goerror.CodeNotFound)
	}

	return nil
}

func (s *Usecase) MarkInboxReadAll(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "MarkInboxReadAll")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return 0, err
	}

	count, err := s.repoDB.MarkInboxReadAll(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark inbox read all", "user_id", clm.UserID, "error", err)
		return 0, goerror.NewServer(err)
	}

	return count, nil
}

func (s *Usecase) DeleteInboxItem(ctx context.Context, in InboxActionInput) error {
	ctx, span := s.startSpan(ctx, "DeleteInboxItem")
	defer span.End()

	clm, err := s.requireAuth(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	ok, err := s.repoDB.SoftDeleteInbox(ctx, clm.UserID, in.ItemID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete inbox item", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if !ok {
		return goerror.NewBusiness("inbox item not found", goerror.CodeNotFound)
	}

	return nil
}
