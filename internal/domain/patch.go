package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// NullableID distinguishes an absent parentId from an explicit null.
type NullableID struct {
	Set   bool
	Value *uint
}

func SetParent(id *uint) NullableID { return NullableID{Set: true, Value: id} }

func (n NullableID) IsZero() bool { return !n.Set }

func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v uint
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n NullableID) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatUint(uint64(*n.Value), 10)), nil
}

// ButtonPatch holds the fields of a partial update. Nil fields are untouched.
type ButtonPatch struct {
	ParentID             NullableID    `json:"parentId,omitzero"`
	ButtonKey            *string       `json:"buttonKey,omitempty"`
	TextAr               *string       `json:"textAr,omitempty"`
	TextEn               *string       `json:"textEn,omitempty"`
	ButtonType           *ButtonKind   `json:"buttonType,omitempty"`
	IsEnabled            *bool         `json:"isEnabled,omitempty"`
	IsHidden             *bool         `json:"isHidden,omitempty"`
	DisabledMessage      *string       `json:"disabledMessage,omitempty"`
	IsService            *bool         `json:"isService,omitempty"`
	Price                *float64      `json:"price,omitempty"`
	AskQuantity          *bool         `json:"askQuantity,omitempty"`
	DefaultQuantity      *int          `json:"defaultQuantity,omitempty"`
	ShowBackOnQuantity   *bool         `json:"showBackOnQuantity,omitempty"`
	ShowCancelOnQuantity *bool         `json:"showCancelOnQuantity,omitempty"`
	BackBehavior         *BackBehavior `json:"backBehavior,omitempty"`
	MessageAr            *string       `json:"messageAr,omitempty"`
	MessageEn            *string       `json:"messageEn,omitempty"`
	OrderIndex           *int          `json:"orderIndex,omitempty"`
	Icon                 *string       `json:"icon,omitempty"`
	CallbackData         *string       `json:"callbackData,omitempty"`
	ButtonSize           *ButtonSize   `json:"buttonSize,omitempty"`
}

func (p ButtonPatch) Empty() bool {
	return p == ButtonPatch{}
}

// OnlyEnabledChanged reports whether the patch touches isEnabled and nothing else.
func (p ButtonPatch) OnlyEnabledChanged() bool {
	if p.IsEnabled == nil {
		return false
	}
	rest := p
	rest.IsEnabled = nil
	return rest.Empty()
}

func (p ButtonPatch) Apply(b Button) Button {
	if p.ParentID.Set {
		b.ParentID = p.ParentID.Value
	}
	setIf(&b.ButtonKey, p.ButtonKey)
	setIf(&b.TextAr, p.TextAr)
	setIf(&b.TextEn, p.TextEn)
	setIf(&b.ButtonType, p.ButtonType)
	setIf(&b.IsEnabled, p.IsEnabled)
	setIf(&b.IsHidden, p.IsHidden)
	setIf(&b.DisabledMessage, p.DisabledMessage)
	setIf(&b.IsService, p.IsService)
	setIf(&b.Price, p.Price)
	setIf(&b.AskQuantity, p.AskQuantity)
	setIf(&b.DefaultQuantity, p.DefaultQuantity)
	setIf(&b.ShowBackOnQuantity, p.ShowBackOnQuantity)
	setIf(&b.ShowCancelOnQuantity, p.ShowCancelOnQuantity)
	setIf(&b.BackBehavior, p.BackBehavior)
	setIf(&b.MessageAr, p.MessageAr)
	setIf(&b.MessageEn, p.MessageEn)
	setIf(&b.OrderIndex, p.OrderIndex)
	setIf(&b.Icon, p.Icon)
	setIf(&b.CallbackData, p.CallbackData)
	setIf(&b.ButtonSize, p.ButtonSize)
	return b
}

// Diff returns the patch that turns old into updated.
func Diff(old, updated Button) ButtonPatch {
	var p ButtonPatch
	if !sameParent(old.ParentID, updated.ParentID) {
		p.ParentID = SetParent(updated.ParentID)
	}
	p.ButtonKey = changed(old.ButtonKey, updated.ButtonKey)
	p.TextAr = changed(old.TextAr, updated.TextAr)
	p.TextEn = changed(old.TextEn, updated.TextEn)
	p.ButtonType = changed(old.ButtonType, updated.ButtonType)
	p.IsEnabled = changed(old.IsEnabled, updated.IsEnabled)
	p.IsHidden = changed(old.IsHidden, updated.IsHidden)
	p.DisabledMessage = changed(old.DisabledMessage, updated.DisabledMessage)
	p.IsService = changed(old.IsService, updated.IsService)
	p.Price = changed(old.Price, updated.Price)
	p.AskQuantity = changed(old.AskQuantity, updated.AskQuantity)
	p.DefaultQuantity = changed(old.DefaultQuantity, updated.DefaultQuantity)
	p.ShowBackOnQuantity = changed(old.ShowBackOnQuantity, updated.ShowBackOnQuantity)
	p.ShowCancelOnQuantity = changed(old.ShowCancelOnQuantity, updated.ShowCancelOnQuantity)
	p.BackBehavior = changed(old.BackBehavior, updated.BackBehavior)
	p.MessageAr = changed(old.MessageAr, updated.MessageAr)
	p.MessageEn = changed(old.MessageEn, updated.MessageEn)
	p.OrderIndex = changed(old.OrderIndex, updated.OrderIndex)
	p.Icon = changed(old.Icon, updated.Icon)
	p.CallbackData = changed(old.CallbackData, updated.CallbackData)
	p.ButtonSize = changed(old.ButtonSize, updated.ButtonSize)
	return p
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func changed[T comparable](old, updated T) *T {
	if old == updated {
		return nil
	}
	return &updated
}
