package application

import (
	"cmp"
	"context"
	"slices"

	"github.com/SAMZalaf/bmomtm/internal/domain"
)

// appendIndex is the next free index after the regular siblings. Back and
// cancel keep their pinned slots unless the regular run has reached them.
func appendIndex(siblings []domain.Button) int {
	next, top := 0, -1
	for _, b := range siblings {
		top = max(top, b.OrderIndex)
		if !b.ButtonType.Pinned() {
			next = max(next, b.OrderIndex+1)
		}
	}
	for _, b := range siblings {
		if b.ButtonType.Pinned() && b.OrderIndex == next {
			return top + 1
		}
	}
	return next
}

// regularNext is the index just past the last regular sibling.
func regularNext(siblings []domain.Button) int {
	next := 0
	for _, b := range siblings {
		if !b.ButtonType.Pinned() {
			next = max(next, b.OrderIndex+1)
		}
	}
	return next
}

// clampRegular keeps a regular button below the back and cancel run. An index
// at or past the lowest pinned sibling becomes the slot after the regular run.
func clampRegular(siblings []domain.Button, index int) int {
	floor, found := 0, false
	for _, b := range siblings {
		if b.ButtonType.Pinned() && (!found || b.OrderIndex < floor) {
			floor, found = b.OrderIndex, true
		}
	}
	if !found || index < floor {
		return index
	}
	return regularNext(siblings)
}

// pinnedSlot is the fixed index of a back or cancel button, or the next index
// above every sibling when another button already holds it.
func pinnedSlot(siblings []domain.Button, kind domain.ButtonKind) int {
	want, _ := domain.PinnedOrderIndex(kind)
	top, taken := -1, false
	for _, b := range siblings {
		top = max(top, b.OrderIndex)
		taken = taken || b.OrderIndex == want
	}
	if !taken {
		return want
	}
	return top + 1
}

// settleSiblings raises every order index under parentID that does not climb
// above the one before it. On a tie the regular button stays first.
func settleSiblings(ctx context.Context, tx domain.MenuRepository, parentID *uint) error {
	siblings, err := tx.ListChildren(ctx, parentID)
	if err != nil {
		return err
	}
	slices.SortStableFunc(siblings, func(a, b domain.Button) int {
		if c := cmp.Compare(a.OrderIndex, b.OrderIndex); c != 0 {
			return c
		}
		if a.ButtonType.Pinned() != b.ButtonType.Pinned() {
			if a.ButtonType.Pinned() {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.ID, b.ID)
	})
	for i := 1; i < len(siblings); i++ {
		prev := siblings[i-1].OrderIndex
		if siblings[i].OrderIndex > prev {
			continue
		}
		siblings[i].OrderIndex = prev + 1
		if err := setOrderIndex(ctx, tx, siblings[i].ID, prev+1); err != nil {
			return err
		}
	}
	return nil
}

func regularSiblings(siblings []domain.Button) []domain.Button {
	out := make([]domain.Button, 0, len(siblings))
	for _, b := range siblings {
		if !b.ButtonType.Pinned() {
			out = append(out, b)
		}
	}
	domain.SortSiblings(out)
	return out
}

func withoutButton(siblings []domain.Button, id uint) []domain.Button {
	return slices.DeleteFunc(slices.Clone(siblings), func(b domain.Button) bool { return b.ID == id })
}

func childrenOf(all []domain.Button, parentID *uint) []domain.Button {
	out := make([]domain.Button, 0)
	for _, b := range all {
		if b.SameParent(parentID) {
			out = append(out, b)
		}
	}
	domain.SortSiblings(out)
	return out
}

// layoutSiblings numbers an ordered sibling list from zero. A trailing run of
// pinned buttons keeps its indexes while they stay increasing.
func layoutSiblings(ordered []domain.Button) []int {
	n := len(ordered)
	start := n
	for start > 0 && ordered[start-1].ButtonType.Pinned() {
		start--
	}
	idx := make([]int, n)
	for i := 0; i < start; i++ {
		idx[i] = i
	}
	prev := start - 1
	for i := start; i < n; i++ {
		v := ordered[i].OrderIndex
		if v <= prev {
			v = prev + 1
		}
		idx[i] = v
		prev = v
	}
	return idx
}

func setOrderIndex(ctx context.Context, tx domain.MenuRepository, id uint, index int) error {
	_, err := tx.UpdateButton(ctx, id, domain.ButtonPatch{OrderIndex: &index})
	return err
}

// shiftFrom moves every regular sibling at or above from up by delta.
func shiftFrom(ctx context.Context, tx domain.MenuRepository, siblings []domain.Button, from, delta int) error {
	for _, b := range siblings {
		if b.ButtonType.Pinned() || b.OrderIndex < from {
			continue
		}
		if err := setOrderIndex(ctx, tx, b.ID, b.OrderIndex+delta); err != nil {
			return err
		}
	}
	return nil
}

// makeRoom shifts regular siblings up by one when index is already taken.
func makeRoom(ctx context.Context, tx domain.MenuRepository, siblings []domain.Button, index int) error {
	for _, b := range siblings {
		if !b.ButtonType.Pinned() && b.OrderIndex == index {
			return shiftFrom(ctx, tx, siblings, index, 1)
		}
	}
	return nil
}

// insertAt compacts the regular siblings around slot k and returns k.
func insertAt(ctx context.Context, tx domain.MenuRepository, siblings []domain.Button, k int) (int, error) {
	for i, b := range regularSiblings(siblings) {
		want := i
		if i >= k {
			want = i + 1
		}
		if b.OrderIndex == want {
			continue
		}
		if err := setOrderIndex(ctx, tx, b.ID, want); err != nil {
			return 0, err
		}
	}
	return k, nil
}

// placeNew picks the order index of a button about to be inserted, shifting
// siblings when needed.
func placeNew(ctx context.Context, tx domain.MenuRepository, b domain.Button, explicit bool, position domain.InsertPosition) (int, error) {
	siblings, err := tx.ListChildren(ctx, b.ParentID)
	if err != nil {
		return 0, err
	}
	if b.ButtonType.Pinned() {
		return pinnedSlot(siblings, b.ButtonType), nil
	}
	if explicit {
		index := clampRegular(siblings, b.OrderIndex)
		return index, makeRoom(ctx, tx, siblings, index)
	}
	switch position {
	case domain.InsertTop:
		return insertAt(ctx, tx, siblings, 0)
	case domain.InsertCenter:
		return insertAt(ctx, tx, siblings, len(regularSiblings(siblings))/2)
	default:
		return appendIndex(siblings), nil
	}
}

func validInsertPosition(p domain.InsertPosition) bool {
	switch p {
	case "", domain.InsertTop, domain.InsertCenter, domain.InsertEnd:
		return true
	}
	return false
}
