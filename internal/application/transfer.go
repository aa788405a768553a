package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SAMZalaf/bmomtm/internal/domain"
	"go.uber.org/zap"
)

// importNode is one element of an exported document.
type importNode struct {
	domain.ButtonDraft
	Children []importNode `json:"children"`
}

type restored struct {
	button   domain.Button
	children []restored
}

// Export returns the whole forest as served by Tree.
func (s *MenuService) Export(ctx context.Context) ([]*domain.ButtonNode, error) {
	return s.Tree(ctx)
}

// Import replaces the whole tree with the document in raw, which is either a
// JSON array of nodes or an object holding one under "buttons". Every node is
// validated before the old tree is touched.
func (s *MenuService) Import(ctx context.Context, raw []byte) (int, error) {
	nodes, err := decodeImport(raw)
	if err != nil {
		return 0, err
	}
	verr := &domain.ValidationError{}
	tree := s.restoreLevel(nodes, "", verr)
	if err := verr.OrNil(); err != nil {
		return 0, err
	}

	total := 0
	err = s.mutate(ctx, "import", func(tx domain.MenuRepository) (int, error) {
		if err := tx.DeleteAllButtons(ctx); err != nil {
			return 0, err
		}
		n, err := insertRestored(ctx, tx, tree, nil)
		total = n
		return n, err
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("button tree imported", zap.Int("buttons", total))
	s.record(ctx, domain.ActionButtonsImported, fmt.Sprintf("%d buttons imported", total), nil,
		map[string]any{"count": total})
	return total, nil
}

func decodeImport(raw []byte) ([]importNode, error) {
	const msg = "input must be an array of buttons"
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, domain.Invalid("body", msg)
	}
	switch trimmed[0] {
	case '[':
		var nodes []importNode
		if err := json.Unmarshal(trimmed, &nodes); err != nil {
			return nil, domain.Invalid("body", msg+": "+err.Error())
		}
		return nodes, nil
	case '{':
		var envelope struct {
			Buttons *[]importNode `json:"buttons"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil || envelope.Buttons == nil {
			return nil, domain.Invalid("body", msg)
		}
		return *envelope.Buttons, nil
	}
	return nil, domain.Invalid("body", msg)
}

func (s *MenuService) restoreLevel(nodes []importNode, prefix string, verr *domain.ValidationError) []restored {
	out := make([]restored, 0, len(nodes))
	for i, n := range nodes {
		path := fmt.Sprintf("%s[%d]", prefix, i)
		d := n.ButtonDraft
		d.ParentID = nil
		if d.OrderIndex == nil {
			index := i
			if pinned, ok := domain.PinnedOrderIndex(d.ButtonType); ok {
				index = pinned
			}
			d.OrderIndex = &index
		}
		b := domain.RestoreButton(d, s.suffix())
		if err := domain.ValidateButton(b, path+"."); err != nil {
			var fields *domain.ValidationError
			if errors.As(err, &fields) {
				verr.Merge(fields)
			}
		}
		out = append(out, restored{
			button:   b,
			children: s.restoreLevel(n.Children, path+".children", verr),
		})
	}
	return out
}

func insertRestored(ctx context.Context, tx domain.MenuRepository, level []restored, parent *uint) (int, error) {
	if len(level) == 0 {
		return 0, nil
	}
	total := 0
	for _, r := range level {
		b := r.button
		b.ParentID = parent
		created, err := tx.CreateButton(ctx, b)
		if err != nil {
			return 0, err
		}
		n, err := insertRestored(ctx, tx, r.children, &created.ID)
		if err != nil {
			return 0, err
		}
		total += n + 1
	}
	return total, settleSiblings(ctx, tx, parent)
}

var resetSeed = []domain.Button{
	{
		ButtonKey: "static_proxy",
		TextAr:    "🌐 ستاتيك بروكسي",
		TextEn:    "🌐 Static Proxy",
		MessageAr: "اختر نوع الخدمة",
		MessageEn: "Choose service type",
		Icon:      "🌐",
	},
	{
		ButtonKey:  "socks_proxy",
		TextAr:     "🧦 سوكس بروكسي",
		TextEn:     "🧦 SOCKS Proxy",
		MessageAr:  "اختر الدولة",
		MessageEn:  "Choose country",
		Icon:       "🧦",
		OrderIndex: 1,
	},
}

// Reset replaces the whole tree with the default seed menus.
func (s *MenuService) Reset(ctx context.Context) error {
	err := s.mutate(ctx, "reset", func(tx domain.MenuRepository) (int, error) {
		if err := tx.DeleteAllButtons(ctx); err != nil {
			return 0, err
		}
		for _, seed := range resetSeed {
			b := domain.ButtonDraft{}.Defaults()
			b.ButtonKey, b.TextAr, b.TextEn = seed.ButtonKey, seed.TextAr, seed.TextEn
			b.MessageAr, b.MessageEn, b.Icon = seed.MessageAr, seed.MessageEn, seed.Icon
			b.OrderIndex = seed.OrderIndex
			if _, err := tx.CreateButton(ctx, b); err != nil {
				return 0, err
			}
		}
		return len(resetSeed), nil
	})
	if err != nil {
		return err
	}
	s.log.Info("button tree reset to defaults")
	s.record(ctx, domain.ActionButtonsReset, "buttons reset to defaults", nil, nil)
	return nil
}
