package application

import (
	"context"
	"fmt"

	"github.com/SAMZalaf/bmomtm/internal/domain"
)

type ReorderRequest struct {
	ButtonID uint                   `json:"buttonId"`
	TargetID uint                   `json:"targetId"`
	Position domain.ReorderPosition `json:"position"`
}

func (s *MenuService) Tree(ctx context.Context) ([]*domain.ButtonNode, error) {
	items, err := s.repo.ListButtons(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BuildTree(items)
}

func (s *MenuService) List(ctx context.Context) ([]domain.Button, error) {
	return s.repo.ListButtons(ctx)
}

func (s *MenuService) Children(ctx context.Context, parentID *uint) ([]domain.Button, error) {
	return s.repo.ListChildren(ctx, parentID)
}

func (s *MenuService) Get(ctx context.Context, id uint) (domain.Button, error) {
	return s.repo.GetButton(ctx, id)
}

// Pages splits the children of parentID (roots when nil) at page separators.
func (s *MenuService) Pages(ctx context.Context, parentID *uint, visibleOnly bool) ([]domain.Page, error) {
	forest, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	siblings := forest
	if parentID != nil {
		node, ok := domain.FindNode(forest, *parentID)
		if !ok {
			return nil, fmt.Errorf("button %d: %w", *parentID, domain.ErrNotFound)
		}
		siblings = node.Children
	}
	return domain.Paginate(siblings, visibleOnly), nil
}

func (s *MenuService) Create(ctx context.Context, draft domain.ButtonDraft) (domain.Button, error) {
	if !validInsertPosition(draft.InsertPosition) {
		return domain.Button{}, domain.Invalid("insertPosition", "must be top, center or end")
	}
	b, err := domain.NewButton(draft, s.suffix())
	if err != nil {
		return domain.Button{}, err
	}

	var created domain.Button
	err = s.mutate(ctx, "create", func(tx domain.MenuRepository) (int, error) {
		var err error
		created, err = s.insert(ctx, tx, b, draft, "")
		return 1, err
	})
	if err != nil {
		return domain.Button{}, err
	}
	s.record(ctx, domain.ActionButtonCreated, fmt.Sprintf("created %s button %q", created.ButtonType, created.ButtonKey), &created.ID, nil)
	return created, nil
}

// insert persists one validated button. field prefixes error messages.
func (s *MenuService) insert(ctx context.Context, tx domain.MenuRepository, b domain.Button, draft domain.ButtonDraft, field string) (domain.Button, error) {
	if err := s.checkParent(ctx, tx, field+"parentId", b.ParentID); err != nil {
		return domain.Button{}, err
	}
	if err := s.checkKeyFree(ctx, tx, field+"buttonKey", b.ButtonKey, 0); err != nil {
		return domain.Button{}, err
	}
	index, err := placeNew(ctx, tx, b, draft.OrderIndex != nil, draft.InsertPosition)
	if err != nil {
		return domain.Button{}, err
	}
	b.OrderIndex = index
	created, err := tx.CreateButton(ctx, b)
	if err != nil {
		return domain.Button{}, err
	}
	return created, settleSiblings(ctx, tx, created.ParentID)
}

// Update applies a partial update. Kind rules and validation run over the
// merged result, so switching kinds keeps every invariant.
func (s *MenuService) Update(ctx context.Context, id uint, patch domain.ButtonPatch) (domain.Button, error) {
	patch.CallbackData = nil

	var updated domain.Button
	var toggled bool
	err := s.mutate(ctx, "update", func(tx domain.MenuRepository) (int, error) {
		current, err := tx.GetButton(ctx, id)
		if err != nil {
			return 0, err
		}
		next := domain.ApplyKindRules(patch.Apply(current), s.suffix())
		if err := domain.ValidateButton(next, ""); err != nil {
			return 0, err
		}

		moved := !current.SameParent(next.ParentID)
		if moved {
			if err := s.checkMove(ctx, tx, id, next.ParentID); err != nil {
				return 0, err
			}
		}
		if next.ButtonKey != current.ButtonKey {
			if err := s.checkKeyFree(ctx, tx, "buttonKey", next.ButtonKey, id); err != nil {
				return 0, err
			}
		}
		siblings, err := tx.ListChildren(ctx, next.ParentID)
		if err != nil {
			return 0, err
		}
		siblings = withoutButton(siblings, id)
		switch {
		case next.ButtonType.Pinned():
			next.OrderIndex = current.OrderIndex
			if moved || next.ButtonType != current.ButtonType {
				next.OrderIndex = pinnedSlot(siblings, next.ButtonType)
			}
		case current.ButtonType.Pinned() && patch.OrderIndex == nil, moved && patch.OrderIndex == nil:
			next.OrderIndex = appendIndex(siblings)
		case moved || next.OrderIndex != current.OrderIndex:
			next.OrderIndex = clampRegular(siblings, next.OrderIndex)
			if err := makeRoom(ctx, tx, siblings, next.OrderIndex); err != nil {
				return 0, err
			}
		}

		diff := domain.Diff(current, next)
		toggled = diff.OnlyEnabledChanged()
		if updated, err = tx.UpdateButton(ctx, id, diff); err != nil {
			return 0, err
		}
		if err := settleSiblings(ctx, tx, next.ParentID); err != nil {
			return 0, err
		}
		updated, err = tx.GetButton(ctx, id)
		return 0, err
	})
	if err != nil {
		return domain.Button{}, err
	}

	switch {
	case toggled && updated.IsEnabled:
		s.record(ctx, domain.ActionButtonEnabled, fmt.Sprintf("enabled button %q", updated.ButtonKey), &updated.ID, nil)
	case toggled:
		s.record(ctx, domain.ActionButtonDisabled, fmt.Sprintf("disabled button %q", updated.ButtonKey), &updated.ID, nil)
	default:
		s.record(ctx, domain.ActionButtonUpdated, fmt.Sprintf("updated button %q", updated.ButtonKey), &updated.ID, nil)
	}
	return updated, nil
}

// checkMove rejects a dangling parent and any move below the node itself.
func (s *MenuService) checkMove(ctx context.Context, tx domain.MenuRepository, id uint, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return fmt.Errorf("%w: button %d cannot be its own parent", domain.ErrIntegrity, id)
	}
	if err := s.checkParent(ctx, tx, "parentId", parentID); err != nil {
		return err
	}
	all, err := tx.ListButtons(ctx)
	if err != nil {
		return err
	}
	if domain.IsDescendant(all, id, *parentID) {
		return fmt.Errorf("%w: button %d cannot move below its descendant %d", domain.ErrIntegrity, id, *parentID)
	}
	return nil
}

// Delete removes the button and its whole subtree, returning the row count.
func (s *MenuService) Delete(ctx context.Context, id uint) (int64, error) {
	var target domain.Button
	var deleted int64
	err := s.mutate(ctx, "delete", func(tx domain.MenuRepository) (int, error) {
		var err error
		if target, err = tx.GetButton(ctx, id); err != nil {
			return 0, err
		}
		all, err := tx.ListButtons(ctx)
		if err != nil {
			return 0, err
		}
		deleted, err = tx.DeleteButtons(ctx, domain.SubtreeIDs(all, id)...)
		return 0, err
	})
	if err != nil {
		return 0, err
	}
	s.record(ctx, domain.ActionButtonDeleted, fmt.Sprintf("deleted button %q", target.ButtonKey), &target.ID,
		map[string]any{"rows": deleted})
	return deleted, nil
}

// Reorder moves a button before, after or inside a target and renumbers the
// affected sibling lists.
func (s *MenuService) Reorder(ctx context.Context, req ReorderRequest) error {
	switch req.Position {
	case domain.ReorderBefore, domain.ReorderAfter, domain.ReorderInside:
	default:
		return domain.Invalid("position", "must be before, after or inside")
	}
	if req.ButtonID == 0 || req.TargetID == 0 {
		return domain.Invalid("buttonId", "buttonId and targetId are required")
	}
	if req.ButtonID == req.TargetID {
		return domain.Invalid("targetId", "must differ from buttonId")
	}

	err := s.mutate(ctx, "reorder", func(tx domain.MenuRepository) (int, error) {
		moving, err := tx.GetButton(ctx, req.ButtonID)
		if err != nil {
			return 0, err
		}
		target, err := tx.GetButton(ctx, req.TargetID)
		if err != nil {
			return 0, err
		}
		all, err := tx.ListButtons(ctx)
		if err != nil {
			return 0, err
		}

		parent := target.ParentID
		if req.Position == domain.ReorderInside {
			parent = &target.ID
		}
		if parent != nil && (*parent == moving.ID || domain.IsDescendant(all, moving.ID, *parent)) {
			return 0, fmt.Errorf("%w: button %d cannot move below its descendant %d", domain.ErrIntegrity, moving.ID, *parent)
		}

		siblings := withoutButton(childrenOf(all, parent), moving.ID)
		pos := len(siblings)
		switch req.Position {
		case domain.ReorderBefore:
			pos = indexOfButton(siblings, target.ID)
		case domain.ReorderAfter:
			pos = indexOfButton(siblings, target.ID) + 1
		default:
			for pos > 0 && siblings[pos-1].ButtonType.Pinned() {
				pos--
			}
		}

		placed := moving
		placed.ParentID = parent
		ordered := make([]domain.Button, 0, len(siblings)+1)
		ordered = append(ordered, siblings[:pos]...)
		ordered = append(ordered, placed)
		ordered = append(ordered, siblings[pos:]...)
		if err := writeLayout(ctx, tx, ordered, moving); err != nil {
			return 0, err
		}

		if !moving.SameParent(parent) {
			left := withoutButton(childrenOf(all, moving.ParentID), moving.ID)
			if err := writeLayout(ctx, tx, left, moving); err != nil {
				return 0, err
			}
		}
		return 0, nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, domain.ActionButtonsReordered,
		fmt.Sprintf("moved button %d %s button %d", req.ButtonID, req.Position, req.TargetID), &req.ButtonID, nil)
	return nil
}

// writeLayout persists the renumbered order, touching only changed rows.
// moving is the stored state of the button being moved.
func writeLayout(ctx context.Context, tx domain.MenuRepository, ordered []domain.Button, moving domain.Button) error {
	for i, index := range layoutSiblings(ordered) {
		b := ordered[i]
		var patch domain.ButtonPatch
		if b.ID == moving.ID && !moving.SameParent(b.ParentID) {
			patch.ParentID = domain.SetParent(b.ParentID)
		}
		if index != b.OrderIndex {
			patch.OrderIndex = &index
		}
		if patch.Empty() {
			continue
		}
		if _, err := tx.UpdateButton(ctx, b.ID, patch); err != nil {
			return err
		}
	}
	return nil
}

func indexOfButton(siblings []domain.Button, id uint) int {
	for i, b := range siblings {
		if b.ID == id {
			return i
		}
	}
	return len(siblings)
}

func (s *MenuService) Click(ctx context.Context, id uint) error {
	b, err := s.repo.GetButton(ctx, id)
	if err != nil {
		return err
	}
	s.record(ctx, domain.ActionButtonClicked, fmt.Sprintf("clicked button %q", b.ButtonKey), &b.ID, nil)
	return nil
}
