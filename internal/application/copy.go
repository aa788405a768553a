package application

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/SAMZalaf/bmomtm/internal/domain"
)

const maxCopyCount = 50

// CopyName overrides the key and texts of one top-level copy. Entries that are
// not objects, or fields that are not strings, decode as empty and fall back
// to generated values.
type CopyName struct {
	ButtonKey string `json:"buttonKey"`
	TextAr    string `json:"textAr"`
	TextEn    string `json:"textEn"`
}

func (n *CopyName) UnmarshalJSON(data []byte) error {
	*n = CopyName{}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	text := func(key string) string {
		v, _ := raw[key].(string)
		return strings.TrimSpace(v)
	}
	n.ButtonKey = text("buttonKey")
	n.TextAr = text("textAr")
	n.TextEn = text("textEn")
	return nil
}

type CopyRequest struct {
	SourceButtonID       uint                  `json:"sourceButtonId"`
	CopyCount            int                   `json:"copyCount"`
	CopyNames            []CopyName            `json:"copyNames"`
	TargetParentID       domain.NullableID     `json:"targetParentId,omitzero"`
	CopyChildren         bool                  `json:"copyChildren"`
	InsertAfterButtonID  *uint                 `json:"insertAfterButtonId"`
	InsertPosition       domain.InsertPosition `json:"insertPosition"`
	OverrideServicePrice bool                  `json:"overrideServicePrice"`
	NewServicePrice      json.RawMessage       `json:"newServicePrice"`
}

type CopyResult struct {
	Buttons      []*domain.ButtonNode `json:"buttons"`
	TotalCreated int                  `json:"totalCreated"`
}

// Copy clones the source subtree CopyCount times under the target parent
// (the source's own parent by default). Only the top-level copies are renamed.
func (s *MenuService) Copy(ctx context.Context, req CopyRequest) (CopyResult, error) {
	if req.SourceButtonID == 0 {
		return CopyResult{}, domain.Invalid("sourceButtonId", "is required")
	}
	if req.CopyCount == 0 {
		req.CopyCount = 1
	}
	if req.CopyCount < 1 || req.CopyCount > maxCopyCount {
		return CopyResult{}, domain.Invalid("copyCount", fmt.Sprintf("must be between 1 and %d", maxCopyCount))
	}
	var price *float64
	if req.OverrideServicePrice {
		if v, ok := parseOverridePrice(req.NewServicePrice); ok {
			price = &v
		}
	}

	var result CopyResult
	err := s.mutate(ctx, "copy", func(tx domain.MenuRepository) (int, error) {
		all, err := tx.ListButtons(ctx)
		if err != nil {
			return 0, err
		}
		forest, err := domain.BuildTree(all)
		if err != nil {
			return 0, err
		}
		source, ok := domain.FindNode(forest, req.SourceButtonID)
		if !ok {
			return 0, fmt.Errorf("source button %d: %w", req.SourceButtonID, domain.ErrNotFound)
		}

		parent := source.ParentID
		if req.TargetParentID.Set {
			parent = req.TargetParentID.Value
			if err := s.checkParent(ctx, tx, "targetParentId", parent); err != nil {
				return 0, err
			}
			if parent != nil && (*parent == source.ID || domain.IsDescendant(all, source.ID, *parent)) {
				return 0, fmt.Errorf("%w: cannot copy button %d into its own subtree", domain.ErrIntegrity, source.ID)
			}
		}

		start, err := s.copyStart(ctx, tx, childrenOf(all, parent), parent, req)
		if err != nil {
			return 0, err
		}

		stamp := s.now().UnixMilli()
		for i := 0; i < req.CopyCount; i++ {
			var name CopyName
			if i < len(req.CopyNames) {
				name = req.CopyNames[i]
			}
			top := source.Button
			top.ButtonKey = fallbackCopyKey(source.ButtonKey, stamp, i+1)
			if domain.ValidKey(name.ButtonKey) {
				top.ButtonKey = name.ButtonKey
			}
			if name.TextAr != "" {
				top.TextAr = name.TextAr
			}
			if name.TextEn != "" {
				top.TextEn = name.TextEn
			}
			if !top.ButtonType.Special() {
				if err := s.checkKeyFree(ctx, tx, fmt.Sprintf("copyNames[%d].buttonKey", i), top.ButtonKey, 0); err != nil {
					return 0, err
				}
			}

			order := start + i
			if top.ButtonType.Pinned() {
				siblings, err := tx.ListChildren(ctx, parent)
				if err != nil {
					return 0, err
				}
				order = pinnedSlot(siblings, top.ButtonType)
			}
			node, n, err := s.cloneNode(ctx, tx, source, top, parent, order, req.CopyChildren, price)
			if err != nil {
				return 0, err
			}
			result.Buttons = append(result.Buttons, node)
			result.TotalCreated += n
		}
		return result.TotalCreated, settleSiblings(ctx, tx, parent)
	})
	if err != nil {
		return CopyResult{}, err
	}

	details := fmt.Sprintf("%d buttons copied", len(result.Buttons))
	if req.CopyChildren {
		details += " with children"
	}
	s.record(ctx, domain.ActionButtonsCopied, details, &req.SourceButtonID, map[string]any{
		"copies":       len(result.Buttons),
		"totalCreated": result.TotalCreated,
	})
	return result, nil
}

// copyStart returns the first order index for the copies and shifts the
// siblings that have to make room. An anchor must live under parent; a back
// or cancel anchor puts the copies ahead of the pinned run.
func (s *MenuService) copyStart(ctx context.Context, tx domain.MenuRepository, siblings []domain.Button, parent *uint, req CopyRequest) (int, error) {
	if req.InsertAfterButtonID != nil {
		anchor, err := tx.GetButton(ctx, *req.InsertAfterButtonID)
		if err != nil {
			return 0, err
		}
		if !anchor.SameParent(parent) {
			return 0, domain.Invalid("insertAfterButtonId", "must be a child of the target parent")
		}
		if anchor.ButtonType.Pinned() {
			return regularNext(siblings), nil
		}
		start := anchor.OrderIndex + 1
		return start, shiftFrom(ctx, tx, siblings, start, req.CopyCount)
	}
	if req.InsertPosition == domain.InsertTop {
		return 0, shiftFrom(ctx, tx, siblings, 0, req.CopyCount)
	}
	return appendIndex(siblings), nil
}

// cloneNode creates a copy of src carrying the fields of value under parent,
// then its children when deep is set. It returns the new node and the number
// of rows created.
func (s *MenuService) cloneNode(ctx context.Context, tx domain.MenuRepository, src *domain.ButtonNode, value domain.Button, parent *uint, order int, deep bool, price *float64) (*domain.ButtonNode, int, error) {
	value.ID = 0
	value.ParentID = parent
	value.CallbackData = ""
	if price != nil && value.IsService {
		value.Price = *price
	}
	if value.ButtonType.Special() {
		value.ButtonKey = ""
	}
	value = domain.ApplyKindRules(value, s.suffix())
	value.OrderIndex = order

	created, err := tx.CreateButton(ctx, value)
	if err != nil {
		return nil, 0, err
	}
	node := &domain.ButtonNode{Button: created, Children: []*domain.ButtonNode{}}
	total := 1
	if !deep {
		return node, total, nil
	}
	for i, child := range src.Children {
		order := i
		if child.ButtonType.Pinned() {
			order = child.OrderIndex
		}
		clone, n, err := s.cloneNode(ctx, tx, child, child.Button, &created.ID, order, true, price)
		if err != nil {
			return nil, 0, err
		}
		node.Children = append(node.Children, clone)
		total += n
	}
	return node, total, nil
}

func fallbackCopyKey(key string, stamp int64, n int) string {
	out := key + "_copy_" + strconv.FormatInt(stamp, 10)
	if n > 1 {
		out += "_" + strconv.Itoa(n)
	}
	return out
}

// parseOverridePrice accepts a JSON number or numeric string. Anything else,
// negative or non-finite values included, means no override.
func parseOverridePrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	var price float64
	switch t := v.(type) {
	case float64:
		price = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		price = parsed
	default:
		return 0, false
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, false
	}
	return price, true
}
