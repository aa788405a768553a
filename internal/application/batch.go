package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAMZalaf/bmomtm/internal/domain"
)

// BatchCreate validates every draft before writing any, then creates them in
// input order inside one transaction.
func (s *MenuService) BatchCreate(ctx context.Context, drafts []domain.ButtonDraft) ([]domain.Button, error) {
	if len(drafts) == 0 {
		return nil, domain.Invalid("buttons", "at least one button is required")
	}

	verr := &domain.ValidationError{}
	built := make([]domain.Button, len(drafts))
	seen := make(map[string]int, len(drafts))
	for i, d := range drafts {
		prefix := fmt.Sprintf("items[%d].", i)
		if !validInsertPosition(d.InsertPosition) {
			verr.Add(prefix+"insertPosition", "must be top, center or end")
		}
		b := domain.Prepare(d, s.suffix())
		if err := domain.ValidateButton(b, prefix); err != nil {
			var fields *domain.ValidationError
			if !errors.As(err, &fields) {
				return nil, err
			}
			verr.Merge(fields)
		}
		if j, dup := seen[b.ButtonKey]; dup {
			verr.Add(prefix+"buttonKey", fmt.Sprintf("duplicates items[%d].buttonKey", j))
		} else if b.ButtonKey != "" {
			seen[b.ButtonKey] = i
		}
		built[i] = b
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	created := make([]domain.Button, 0, len(built))
	err := s.mutate(ctx, "batch_create", func(tx domain.MenuRepository) (int, error) {
		for i, b := range built {
			saved, err := s.insert(ctx, tx, b, drafts[i], fmt.Sprintf("items[%d].", i))
			if err != nil {
				return 0, err
			}
			created = append(created, saved)
		}
		return len(built), nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, domain.ActionButtonsBatchCreated, fmt.Sprintf("%d buttons created", len(created)), nil,
		map[string]any{"count": len(created)})
	return created, nil
}
