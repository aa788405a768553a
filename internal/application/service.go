package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MutationObserver is told about every committed tree mutation.
type MutationObserver interface {
	ObserveMutation(operation string, created int)
}

type nopObserver struct{}

func (nopObserver) ObserveMutation(string, int) {}

type MenuService struct {
	repo     domain.MenuRepository
	log      *zap.Logger
	observer MutationObserver
	now      func() time.Time
	suffix   func() string
}

type Option func(*MenuService)

func WithLogger(log *zap.Logger) Option {
	return func(s *MenuService) {
		if log != nil {
			s.log = log
		}
	}
}

func WithObserver(observer MutationObserver) Option {
	return func(s *MenuService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *MenuService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithKeySuffix replaces the generator used for special-kind and fallback keys.
func WithKeySuffix(fn func() string) Option {
	return func(s *MenuService) {
		if fn != nil {
			s.suffix = fn
		}
	}
}

func NewMenuService(repo domain.MenuRepository, opts ...Option) *MenuService {
	s := &MenuService{
		repo:     repo,
		log:      zap.NewNop(),
		observer: nopObserver{},
		now:      func() time.Time { return time.Now().UTC() },
		suffix:   newKeySuffix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newKeySuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// mutate runs fn in one transaction and reports the operation once it commits.
func (s *MenuService) mutate(ctx context.Context, operation string, fn func(tx domain.MenuRepository) (int, error)) error {
	created := 0
	err := s.repo.WithinTx(ctx, func(tx domain.MenuRepository) error {
		n, err := fn(tx)
		created = n
		return err
	})
	if err != nil {
		return err
	}
	s.observer.ObserveMutation(operation, created)
	return nil
}

func (s *MenuService) checkParent(ctx context.Context, tx domain.MenuRepository, field string, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	if _, err := tx.GetButton(ctx, *parentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %s %d does not exist", domain.ErrIntegrity, field, *parentID)
		}
		return err
	}
	return nil
}

func (s *MenuService) checkKeyFree(ctx context.Context, tx domain.MenuRepository, field, key string, excludeID uint) error {
	taken, err := tx.ButtonKeyExists(ctx, key, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s %q is already used", domain.ErrConflict, field, key)
	}
	return nil
}

func clampLimit(limit, fallback, max int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
