package application

import (
	"context"

	"github.com/SAMZalaf/bmomtm/internal/domain"
	"go.uber.org/zap"
)

// record appends to the activity log. A failed append is logged and dropped.
func (s *MenuService) record(ctx context.Context, action domain.ActivityAction, details string, buttonID *uint, metadata map[string]any) {
	entry := domain.ActivityLog{
		Action:   action,
		Details:  details,
		ButtonID: buttonID,
		Metadata: metadata,
	}
	if err := s.repo.AppendActivity(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Warn("activity append failed",
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

func (s *MenuService) ListActivity(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	return s.repo.ListActivity(ctx, clampLimit(limit, 100, 1000))
}
