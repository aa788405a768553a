package application

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestCopyWithChildrenOverridesServicePricesOnly(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc

	m := mustCreate(t, ctx, svc, draft("m", nil))
	mustCreate(t, ctx, svc, draft("other", nil))
	source := map[uint]bool{m.ID: true}
	for _, key := range []string{"c1", "c2"} {
		d := draft(key, &m.ID)
		d.ButtonType = domain.KindService
		d.Price = ptr(5.0)
		source[mustCreate(t, ctx, svc, d).ID] = true
	}
	plain := draft("n", &m.ID)
	plain.Price = ptr(3.0)
	source[mustCreate(t, ctx, svc, plain).ID] = true

	res, err := svc.Copy(ctx, CopyRequest{
		SourceButtonID:       m.ID,
		CopyCount:            2,
		CopyChildren:         true,
		OverrideServicePrice: true,
		NewServicePrice:      json.RawMessage(`"9"`),
	})
	require.NoError(t, err)
	require.Len(t, res.Buttons, 2)
	require.Equal(t, 8, res.TotalCreated)

	stamp := testNow.UnixMilli()
	require.Equal(t, fmt.Sprintf("m_copy_%d", stamp), res.Buttons[0].ButtonKey)
	require.Equal(t, fmt.Sprintf("m_copy_%d_2", stamp), res.Buttons[1].ButtonKey)

	for _, clone := range res.Buttons {
		require.Len(t, clone.Children, 3)
		require.Equal(t, 0.0, clone.Price)
		for i, child := range clone.Children {
			require.Equal(t, i, child.OrderIndex)
			if child.IsService {
				require.Equal(t, 9.0, child.Price, child.ButtonKey)
			} else {
				require.Equal(t, 3.0, child.Price, child.ButtonKey)
			}
		}
		clone.Walk(func(n *domain.ButtonNode) {
			require.False(t, source[n.ID], "clone reused id %d", n.ID)
			require.Equal(t, fmt.Sprintf("dyn_%d", n.ID), n.CallbackData)
		})
	}

	require.Equal(t, []string{"m", "other", res.Buttons[0].ButtonKey, res.Buttons[1].ButtonKey}, childKeys(t, ctx, svc, nil))
	original, err := svc.Children(ctx, &m.ID)
	require.NoError(t, err)
	for _, b := range original {
		require.NotEqual(t, 9.0, b.Price)
	}

	require.Equal(t, 8, env.observer.created["copy"])
	require.Contains(t, activityActions(t, ctx, svc), domain.ActionButtonsCopied)
}

func TestCopyAfterAnchorShiftsLaterSiblings(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	a := mustCreate(t, ctx, svc, draft("a", nil))
	mustCreate(t, ctx, svc, draft("b", nil))
	mustCreate(t, ctx, svc, draft("c", nil))

	var names []CopyName
	require.NoError(t, json.Unmarshal([]byte(`[{"buttonKey":"a_first","textEn":"First","textAr":7},{"buttonKey":"bad key"}]`), &names))

	res, err := svc.Copy(ctx, CopyRequest{
		SourceButtonID:      a.ID,
		CopyCount:           2,
		CopyNames:           names,
		InsertAfterButtonID: &a.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.TotalCreated)
	require.Equal(t, "a_first", res.Buttons[0].ButtonKey)
	require.Equal(t, "First", res.Buttons[0].TextEn)
	require.Equal(t, "a ar", res.Buttons[0].TextAr)
	require.Equal(t, fmt.Sprintf("a_copy_%d_2", testNow.UnixMilli()), res.Buttons[1].ButtonKey)

	require.Equal(t, []string{"a", "a_first", res.Buttons[1].ButtonKey, "b", "c"}, childKeys(t, ctx, svc, nil))
	require.Equal(t, []int{0, 1, 2, 3, 4}, childIndexes(t, ctx, svc, nil))
}

func TestCopyToTopAndIntoOtherParent(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	a := mustCreate(t, ctx, svc, draft("a", nil))
	p := mustCreate(t, ctx, svc, draft("p", nil))
	mustCreate(t, ctx, svc, draft("inner", &p.ID))

	res, err := svc.Copy(ctx, CopyRequest{
		SourceButtonID: a.ID,
		CopyNames:      []CopyName{{ButtonKey: "a_top"}},
		InsertPosition: domain.InsertTop,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a_top", "a", "p"}, childKeys(t, ctx, svc, nil))
	require.Equal(t, 0, res.Buttons[0].OrderIndex)

	_, err = svc.Copy(ctx, CopyRequest{
		SourceButtonID: a.ID,
		CopyNames:      []CopyName{{ButtonKey: "a_inside"}},
		TargetParentID: domain.SetParent(&p.ID),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"inner", "a_inside"}, childKeys(t, ctx, svc, &p.ID))
}

func TestCopyRejectsBadRequests(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	a := mustCreate(t, ctx, svc, draft("a", nil))
	child := mustCreate(t, ctx, svc, draft("child", &a.ID))
	mustCreate(t, ctx, svc, draft("taken", nil))

	_, err := svc.Copy(ctx, CopyRequest{SourceButtonID: a.ID, CopyCount: 51})
	require.True(t, domain.IsValidation(err))

	_, err = svc.Copy(ctx, CopyRequest{})
	require.True(t, domain.IsValidation(err))

	_, err = svc.Copy(ctx, CopyRequest{SourceButtonID: 404})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Copy(ctx, CopyRequest{SourceButtonID: a.ID, TargetParentID: domain.SetParent(&child.ID)})
	require.ErrorIs(t, err, domain.ErrIntegrity)

	_, err = svc.Copy(ctx, CopyRequest{SourceButtonID: a.ID, TargetParentID: domain.SetParent(ptr(uint(404)))})
	require.ErrorIs(t, err, domain.ErrIntegrity)

	_, err = svc.Copy(ctx, CopyRequest{SourceButtonID: a.ID, CopyNames: []CopyName{{ButtonKey: "taken"}}})
	require.ErrorIs(t, err, domain.ErrConflict)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestCopySpecialButtonRegeneratesKey(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	p := mustCreate(t, ctx, svc, draft("p", nil))
	back := mustCreate(t, ctx, svc, domain.ButtonDraft{ParentID: &p.ID, ButtonType: domain.KindBack})
	target := mustCreate(t, ctx, svc, draft("target", nil))

	res, err := svc.Copy(ctx, CopyRequest{SourceButtonID: back.ID, TargetParentID: domain.SetParent(&target.ID)})
	require.NoError(t, err)
	clone := res.Buttons[0]
	require.True(t, strings.HasPrefix(clone.ButtonKey, "back_"))
	require.NotEqual(t, back.ButtonKey, clone.ButtonKey)
	require.Equal(t, domain.BackOrderIndex, clone.OrderIndex)
}

func TestCopyAroundPinnedSiblings(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	a := mustCreate(t, ctx, svc, draft("a", nil))
	back := mustCreate(t, ctx, svc, domain.ButtonDraft{ButtonType: domain.KindBack})
	cancel := mustCreate(t, ctx, svc, domain.ButtonDraft{ButtonType: domain.KindCancel})

	res, err := svc.Copy(ctx, CopyRequest{
		SourceButtonID:      a.ID,
		CopyCount:           2,
		CopyNames:           []CopyName{{ButtonKey: "a1"}, {ButtonKey: "a2"}},
		InsertAfterButtonID: &back.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 2, res.TotalCreated)
	require.Equal(t, []string{"a", "a1", "a2", back.ButtonKey, cancel.ButtonKey}, childKeys(t, ctx, svc, nil))
	require.Equal(t, []int{0, 1, 2, domain.BackOrderIndex, domain.CancelOrderIndex}, childIndexes(t, ctx, svc, nil))

	res, err = svc.Copy(ctx, CopyRequest{SourceButtonID: back.ID})
	require.NoError(t, err)
	require.Equal(t, domain.CancelOrderIndex+1, res.Buttons[0].OrderIndex)
	requireStrictlyAscending(t, ctx, svc, nil)
}

func TestCopyAnchorMustShareTargetParent(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	a := mustCreate(t, ctx, svc, draft("a", nil))
	child := mustCreate(t, ctx, svc, draft("child", &a.ID))
	b := mustCreate(t, ctx, svc, draft("b", nil))

	_, err := svc.Copy(ctx, CopyRequest{SourceButtonID: b.ID, InsertAfterButtonID: &child.ID})
	require.True(t, domain.IsValidation(err))
	require.Equal(t, []string{"a", "b"}, childKeys(t, ctx, svc, nil))

	_, err = svc.Copy(ctx, CopyRequest{
		SourceButtonID:      b.ID,
		CopyNames:           []CopyName{{ButtonKey: "b_inside"}},
		TargetParentID:      domain.SetParent(&a.ID),
		InsertAfterButtonID: &child.ID,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"child", "b_inside"}, childKeys(t, ctx, svc, &a.ID))
}

func TestParseOverridePrice(t *testing.T) {
	cases := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{raw: `9`, want: 9, valid: true},
		{raw: `"12.5"`, want: 12.5, valid: true},
		{raw: `" 3 "`, want: 3, valid: true},
		{raw: `0`, want: 0, valid: true},
		{raw: `-1`},
		{raw: `"abc"`},
		{raw: `"NaN"`},
		{raw: `"Inf"`},
		{raw: `null`},
		{raw: `true`},
		{raw: ``},
	}
	for _, tc := range cases {
		got, ok := parseOverridePrice(json.RawMessage(tc.raw))
		require.Equal(t, tc.valid, ok, "raw %q", tc.raw)
		if tc.valid {
			require.Equal(t, tc.want, got, "raw %q", tc.raw)
		}
	}
}

func TestCopyNameToleratesJunk(t *testing.T) {
	var req CopyRequest
	body := `{"sourceButtonId":1,"copyNames":[{"buttonKey":" k ","textAr":5},"junk",42]}`
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	require.Len(t, req.CopyNames, 3)
	require.Equal(t, CopyName{ButtonKey: "k"}, req.CopyNames[0])
	require.Equal(t, CopyName{}, req.CopyNames[1])
	require.Equal(t, CopyName{}, req.CopyNames[2])
	require.False(t, req.TargetParentID.Set)
}
