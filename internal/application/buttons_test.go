package application

import (
	"fmt"
	"strings"
	"testing"

	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestUpdateToggleRecordsEnableActions(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	b := mustCreate(t, ctx, svc, draft("toggle", nil))

	updated, err := svc.Update(ctx, b.ID, domain.ButtonPatch{IsEnabled: ptr(false)})
	require.NoError(t, err)
	require.False(t, updated.IsEnabled)

	_, err = svc.Update(ctx, b.ID, domain.ButtonPatch{IsEnabled: ptr(true)})
	require.NoError(t, err)

	_, err = svc.Update(ctx, b.ID, domain.ButtonPatch{TextEn: ptr("Renamed"), CallbackData: ptr("forged")})
	require.NoError(t, err)

	stored, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", stored.TextEn)
	require.Equal(t, fmt.Sprintf("dyn_%d", b.ID), stored.CallbackData)

	actions := activityActions(t, ctx, svc)
	require.Contains(t, actions, domain.ActionButtonDisabled)
	require.Contains(t, actions, domain.ActionButtonEnabled)
	require.Contains(t, actions, domain.ActionButtonUpdated)
}

func TestUpdateReappliesKindRules(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	b := mustCreate(t, ctx, svc, draft("plain", nil))

	updated, err := svc.Update(ctx, b.ID, domain.ButtonPatch{ButtonType: ptr(domain.KindBack)})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(updated.ButtonKey, "back_"))
	require.Equal(t, "🔙 Back", updated.TextEn)
	require.Equal(t, domain.BackOrderIndex, updated.OrderIndex)
	require.Equal(t, domain.SizeSmall, updated.ButtonSize)

	link := mustCreate(t, ctx, svc, draft("site", nil))
	_, err = svc.Update(ctx, link.ID, domain.ButtonPatch{ButtonType: ptr(domain.KindLink)})
	require.True(t, domain.IsValidation(err), "link without url")

	updated, err = svc.Update(ctx, link.ID, domain.ButtonPatch{
		ButtonType: ptr(domain.KindLink),
		MessageAr:  ptr(" https://example.com "),
	})
	require.NoError(t, err)
	require.Equal(t, "https://example.com", updated.MessageAr)
	require.Equal(t, "https://example.com", updated.MessageEn)
}

func TestUpdateRejectsBadMovesAndKeys(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	a := mustCreate(t, ctx, svc, draft("a", nil))
	b := mustCreate(t, ctx, svc, draft("b", &a.ID))
	c := mustCreate(t, ctx, svc, draft("c", &b.ID))

	_, err := svc.Update(ctx, a.ID, domain.ButtonPatch{ParentID: domain.SetParent(&c.ID)})
	require.ErrorIs(t, err, domain.ErrIntegrity)

	_, err = svc.Update(ctx, a.ID, domain.ButtonPatch{ParentID: domain.SetParent(&a.ID)})
	require.ErrorIs(t, err, domain.ErrIntegrity)

	_, err = svc.Update(ctx, a.ID, domain.ButtonPatch{ParentID: domain.SetParent(ptr(uint(404)))})
	require.ErrorIs(t, err, domain.ErrIntegrity)

	_, err = svc.Update(ctx, c.ID, domain.ButtonPatch{ButtonKey: ptr("a")})
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Update(ctx, 404, domain.ButtonPatch{TextEn: ptr("x")})
	require.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, stored.ParentID)
}

func TestUpdateMoveAppendsUnderNewParent(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	p := mustCreate(t, ctx, svc, draft("p", nil))
	mustCreate(t, ctx, svc, draft("existing", &p.ID))
	mover := mustCreate(t, ctx, svc, draft("mover", nil))

	moved, err := svc.Update(ctx, mover.ID, domain.ButtonPatch{ParentID: domain.SetParent(&p.ID)})
	require.NoError(t, err)
	require.Equal(t, p.ID, *moved.ParentID)
	require.Equal(t, 1, moved.OrderIndex)

	_, err = svc.Update(ctx, mover.ID, domain.ButtonPatch{OrderIndex: ptr(0)})
	require.NoError(t, err)
	require.Equal(t, []string{"mover", "existing"}, childKeys(t, ctx, svc, &p.ID))
	requireStrictlyAscending(t, ctx, svc, &p.ID)
}

func TestDeleteCascadesSubtree(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	a := mustCreate(t, ctx, svc, draft("a", nil))
	b := mustCreate(t, ctx, svc, draft("b", &a.ID))
	mustCreate(t, ctx, svc, draft("c", &b.ID))
	mustCreate(t, ctx, svc, draft("d", nil))

	deleted, err := svc.Delete(ctx, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, deleted)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "d", all[0].ButtonKey)

	_, err = svc.Delete(ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Contains(t, activityActions(t, ctx, svc), domain.ActionButtonDeleted)
}

func TestReorderAfterLastSibling(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	x := mustCreate(t, ctx, svc, draft("x", nil))
	mustCreate(t, ctx, svc, draft("y", nil))
	z := mustCreate(t, ctx, svc, draft("z", nil))

	require.NoError(t, svc.Reorder(ctx, ReorderRequest{ButtonID: x.ID, TargetID: z.ID, Position: domain.ReorderAfter}))
	require.Equal(t, []string{"y", "z", "x"}, childKeys(t, ctx, svc, nil))
	require.Equal(t, []int{0, 1, 2}, childIndexes(t, ctx, svc, nil))

	require.NoError(t, svc.Reorder(ctx, ReorderRequest{ButtonID: x.ID, TargetID: z.ID, Position: domain.ReorderBefore}))
	require.Equal(t, []string{"y", "x", "z"}, childKeys(t, ctx, svc, nil))
	require.Contains(t, activityActions(t, ctx, svc), domain.ActionButtonsReordered)
}

func TestReorderAcrossParentsRenumbersBoth(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	p1 := mustCreate(t, ctx, svc, draft("p1", nil))
	p2 := mustCreate(t, ctx, svc, draft("p2", nil))
	mustCreate(t, ctx, svc, draft("a", &p1.ID))
	b := mustCreate(t, ctx, svc, draft("b", &p1.ID))
	mustCreate(t, ctx, svc, draft("c", &p1.ID))
	mustCreate(t, ctx, svc, draft("d", &p2.ID))
	back := mustCreate(t, ctx, svc, domain.ButtonDraft{ParentID: &p2.ID, ButtonType: domain.KindBack})

	require.NoError(t, svc.Reorder(ctx, ReorderRequest{ButtonID: b.ID, TargetID: p2.ID, Position: domain.ReorderInside}))

	require.Equal(t, []string{"a", "c"}, childKeys(t, ctx, svc, &p1.ID))
	require.Equal(t, []int{0, 1}, childIndexes(t, ctx, svc, &p1.ID))
	require.Equal(t, []string{"d", "b", back.ButtonKey}, childKeys(t, ctx, svc, &p2.ID))
	require.Equal(t, []int{0, 1, domain.BackOrderIndex}, childIndexes(t, ctx, svc, &p2.ID))

	moved, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, p2.ID, *moved.ParentID)
}

func TestReorderIntoDescendantLeavesTreeUnchanged(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	a := mustCreate(t, ctx, svc, draft("a", nil))
	b := mustCreate(t, ctx, svc, draft("b", &a.ID))
	c := mustCreate(t, ctx, svc, draft("c", &b.ID))

	before, err := svc.List(ctx)
	require.NoError(t, err)

	err = svc.Reorder(ctx, ReorderRequest{ButtonID: a.ID, TargetID: c.ID, Position: domain.ReorderInside})
	require.ErrorIs(t, err, domain.ErrIntegrity)
	err = svc.Reorder(ctx, ReorderRequest{ButtonID: a.ID, TargetID: c.ID, Position: domain.ReorderAfter})
	require.ErrorIs(t, err, domain.ErrIntegrity)

	after, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, before, after)

	require.True(t, domain.IsValidation(svc.Reorder(ctx, ReorderRequest{ButtonID: a.ID, TargetID: b.ID, Position: "below"})))
	require.True(t, domain.IsValidation(svc.Reorder(ctx, ReorderRequest{ButtonID: a.ID, TargetID: a.ID, Position: domain.ReorderAfter})))
	require.ErrorIs(t, svc.Reorder(ctx, ReorderRequest{ButtonID: a.ID, TargetID: 404, Position: domain.ReorderAfter}), domain.ErrNotFound)
}

func TestSiblingOrderStaysStrictlyAscending(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	ids := make(map[string]uint)
	add := func(key string, pos domain.InsertPosition) {
		d := draft(key, nil)
		d.InsertPosition = pos
		ids[key] = mustCreate(t, ctx, svc, d).ID
		requireStrictlyAscending(t, ctx, svc, nil)
	}

	add("a", "")
	add("b", domain.InsertTop)
	add("c", domain.InsertCenter)
	add("d", domain.InsertEnd)
	add("e", domain.InsertCenter)
	mustCreate(t, ctx, svc, domain.ButtonDraft{ButtonType: domain.KindCancel})
	requireStrictlyAscending(t, ctx, svc, nil)

	moves := []ReorderRequest{
		{ButtonID: ids["a"], TargetID: ids["d"], Position: domain.ReorderAfter},
		{ButtonID: ids["d"], TargetID: ids["b"], Position: domain.ReorderBefore},
		{ButtonID: ids["c"], TargetID: ids["e"], Position: domain.ReorderInside},
		{ButtonID: ids["c"], TargetID: ids["a"], Position: domain.ReorderBefore},
	}
	for _, m := range moves {
		require.NoError(t, svc.Reorder(ctx, m))
		requireStrictlyAscending(t, ctx, svc, nil)
	}

	_, err := svc.Delete(ctx, ids["b"])
	require.NoError(t, err)
	requireStrictlyAscending(t, ctx, svc, nil)
	add("f", domain.InsertTop)
	add("g", "")
}

func TestPinnedSiblingsStayCollisionFree(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	a := mustCreate(t, ctx, svc, draft("a", nil))

	mustCreate(t, ctx, svc, domain.ButtonDraft{ButtonType: domain.KindBack})
	second := mustCreate(t, ctx, svc, domain.ButtonDraft{ButtonType: domain.KindBack})
	require.Equal(t, domain.CancelOrderIndex, second.OrderIndex)
	require.Equal(t, []int{0, domain.BackOrderIndex, domain.CancelOrderIndex}, childIndexes(t, ctx, svc, nil))

	cancel := mustCreate(t, ctx, svc, domain.ButtonDraft{ButtonType: domain.KindCancel})
	require.Equal(t, domain.CancelOrderIndex+1, cancel.OrderIndex)

	explicit := draft("explicit", nil)
	explicit.OrderIndex = ptr(domain.CancelOrderIndex)
	placed := mustCreate(t, ctx, svc, explicit)
	require.Equal(t, 1, placed.OrderIndex)

	updated, err := svc.Update(ctx, a.ID, domain.ButtonPatch{OrderIndex: ptr(domain.BackOrderIndex)})
	require.NoError(t, err)
	require.Less(t, updated.OrderIndex, domain.BackOrderIndex)
	requireStrictlyAscending(t, ctx, svc, nil)

	renamed, err := svc.Update(ctx, second.ID, domain.ButtonPatch{TextEn: ptr("ignored")})
	require.NoError(t, err)
	require.Equal(t, domain.CancelOrderIndex, renamed.OrderIndex)

	switched, err := svc.Update(ctx, placed.ID, domain.ButtonPatch{ButtonType: ptr(domain.KindCancel)})
	require.NoError(t, err)
	require.Greater(t, switched.OrderIndex, cancel.OrderIndex)
	requireStrictlyAscending(t, ctx, svc, nil)

	p := mustCreate(t, ctx, svc, draft("p", nil))
	mustCreate(t, ctx, svc, domain.ButtonDraft{ParentID: &p.ID, ButtonType: domain.KindBack})
	moved, err := svc.Update(ctx, second.ID, domain.ButtonPatch{ParentID: domain.SetParent(&p.ID)})
	require.NoError(t, err)
	require.Equal(t, domain.CancelOrderIndex, moved.OrderIndex)
	requireStrictlyAscending(t, ctx, svc, &p.ID)
	requireStrictlyAscending(t, ctx, svc, nil)
}

func TestImportSettlesCollidingIndexes(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc

	doc := `[
		{"buttonKey":"a","textAr":"a","textEn":"a","orderIndex":3},
		{"buttonKey":"b","textAr":"b","textEn":"b","orderIndex":3},
		{"buttonType":"back"},
		{"buttonType":"back"}
	]`
	_, err := svc.Import(ctx, []byte(doc))
	require.NoError(t, err)
	require.Equal(t, []int{3, 4, domain.BackOrderIndex, domain.CancelOrderIndex}, childIndexes(t, ctx, svc, nil))
}

func TestPagesSplitAtSeparators(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	p := mustCreate(t, ctx, svc, draft("p", nil))
	mustCreate(t, ctx, svc, draft("a", &p.ID))
	sep := mustCreate(t, ctx, svc, domain.ButtonDraft{ParentID: &p.ID, ButtonType: domain.KindPageSeparator})
	mustCreate(t, ctx, svc, draft("s1", &sep.ID))
	hidden := draft("b", &p.ID)
	hidden.IsHidden = ptr(true)
	mustCreate(t, ctx, svc, hidden)

	pages, err := svc.Pages(ctx, &p.ID, false)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Len(t, pages[0].Buttons, 1)
	require.Equal(t, sep.ID, pages[1].Separator.ID)
	require.Len(t, pages[1].Buttons, 2)

	pages, err = svc.Pages(ctx, &p.ID, true)
	require.NoError(t, err)
	require.Len(t, pages[1].Buttons, 1)
	require.Equal(t, "s1", pages[1].Buttons[0].ButtonKey)

	_, err = svc.Pages(ctx, ptr(uint(404)), false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClickRecordsActivity(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	b := mustCreate(t, ctx, svc, draft("clicky", nil))

	require.NoError(t, svc.Click(ctx, b.ID))
	require.ErrorIs(t, svc.Click(ctx, 404), domain.ErrNotFound)

	entries, err := svc.ListActivity(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, domain.ActionButtonClicked, entries[0].Action)
	require.Equal(t, b.ID, *entries[0].ButtonID)
}
