package domain

import (
	"math"
	"strings"
	"unicode"
)

const maxKeyLength = 100

// ButtonDraft is caller input for a new button. Nil pointers take defaults.
type ButtonDraft struct {
	ParentID             *uint          `json:"parentId"`
	ButtonKey            string         `json:"buttonKey"`
	TextAr               string         `json:"textAr"`
	TextEn               string         `json:"textEn"`
	ButtonType           ButtonKind     `json:"buttonType"`
	IsEnabled            *bool          `json:"isEnabled"`
	IsHidden             *bool          `json:"isHidden"`
	DisabledMessage      *string        `json:"disabledMessage"`
	IsService            *bool          `json:"isService"`
	Price                *float64       `json:"price"`
	AskQuantity          *bool          `json:"askQuantity"`
	DefaultQuantity      *int           `json:"defaultQuantity"`
	ShowBackOnQuantity   *bool          `json:"showBackOnQuantity"`
	ShowCancelOnQuantity *bool          `json:"showCancelOnQuantity"`
	BackBehavior         BackBehavior   `json:"backBehavior"`
	MessageAr            string         `json:"messageAr"`
	MessageEn            string         `json:"messageEn"`
	OrderIndex           *int           `json:"orderIndex"`
	Icon                 string         `json:"icon"`
	ButtonSize           ButtonSize     `json:"buttonSize"`
	InsertPosition       InsertPosition `json:"insertPosition,omitempty"`
}

type specialFields struct {
	keyPrefix string
	textAr    string
	textEn    string
	icon      string
}

var specials = map[ButtonKind]specialFields{
	KindBack:          {keyPrefix: "back_", textAr: "🔙 رجوع", textEn: "🔙 Back", icon: "🔙"},
	KindCancel:        {keyPrefix: "cancel_", textAr: "❌ إلغاء", textEn: "❌ Cancel", icon: "❌"},
	KindPageSeparator: {keyPrefix: "page_sep_", textAr: "---", textEn: "---", icon: ""},
}

// SpecialKeyPrefix returns the generated key prefix of a special kind.
func SpecialKeyPrefix(kind ButtonKind) (string, bool) {
	s, ok := specials[kind]
	return s.keyPrefix, ok
}

// PinnedOrderIndex returns the fixed order index of back and cancel buttons.
func PinnedOrderIndex(kind ButtonKind) (int, bool) {
	switch kind {
	case KindBack:
		return BackOrderIndex, true
	case KindCancel:
		return CancelOrderIndex, true
	}
	return 0, false
}

// Defaults fills a Button from the draft without kind rules applied.
func (d ButtonDraft) Defaults() Button {
	b := Button{
		ParentID:             d.ParentID,
		ButtonKey:            strings.TrimSpace(d.ButtonKey),
		TextAr:               strings.TrimSpace(d.TextAr),
		TextEn:               strings.TrimSpace(d.TextEn),
		ButtonType:           d.ButtonType,
		IsEnabled:            boolOr(d.IsEnabled, true),
		IsHidden:             boolOr(d.IsHidden, false),
		DisabledMessage:      DefaultDisabledMessage,
		IsService:            boolOr(d.IsService, d.ButtonType == KindService),
		AskQuantity:          boolOr(d.AskQuantity, false),
		DefaultQuantity:      1,
		ShowBackOnQuantity:   boolOr(d.ShowBackOnQuantity, true),
		ShowCancelOnQuantity: boolOr(d.ShowCancelOnQuantity, true),
		BackBehavior:         d.BackBehavior,
		MessageAr:            d.MessageAr,
		MessageEn:            d.MessageEn,
		Icon:                 strings.TrimSpace(d.Icon),
		ButtonSize:           d.ButtonSize,
	}
	if b.ButtonType == "" {
		b.ButtonType = KindMenu
	}
	if b.BackBehavior == "" {
		b.BackBehavior = BackStep
	}
	if b.ButtonSize == "" {
		b.ButtonSize = SizeLarge
	}
	if d.DisabledMessage != nil {
		b.DisabledMessage = *d.DisabledMessage
	}
	if d.Price != nil {
		b.Price = *d.Price
	}
	if d.DefaultQuantity != nil {
		b.DefaultQuantity = *d.DefaultQuantity
	}
	if d.OrderIndex != nil {
		b.OrderIndex = *d.OrderIndex
	}
	return b
}

// NewButton builds a button ready to persist. Special kinds get a fresh key
// built from keySuffix and their canonical texts; back and cancel are pinned.
func NewButton(d ButtonDraft, keySuffix string) (Button, error) {
	b := Prepare(d, keySuffix)
	if err := ValidateButton(b, ""); err != nil {
		return Button{}, err
	}
	return b, nil
}

// Prepare applies defaults and kind rules without validating.
func Prepare(d ButtonDraft, keySuffix string) Button {
	b := d.Defaults()
	if b.ButtonType.Special() {
		b.ButtonKey = ""
	}
	return ApplyKindRules(b, keySuffix)
}

// RestoreButton rebuilds a button from an exported document. Stored special
// fields are kept; missing ones are generated.
func RestoreButton(d ButtonDraft, keySuffix string) Button {
	b := d.Defaults()
	if s, ok := specials[b.ButtonType]; ok {
		if b.ButtonKey == "" {
			b.ButtonKey = s.keyPrefix + keySuffix
		}
		if b.TextAr == "" {
			b.TextAr = s.textAr
		}
		if b.TextEn == "" {
			b.TextEn = s.textEn
		}
		if b.Icon == "" {
			b.Icon = s.icon
		}
	}
	if b.ButtonType == KindLink && b.MessageEn == "" {
		b.MessageEn = b.MessageAr
	}
	return b
}

// ApplyKindRules forces the fields a kind owns. A special button whose key
// lacks the kind prefix gets a new key built from keySuffix.
func ApplyKindRules(b Button, keySuffix string) Button {
	switch b.ButtonType {
	case KindBack, KindCancel:
		s := specials[b.ButtonType]
		if !strings.HasPrefix(b.ButtonKey, s.keyPrefix) {
			b.ButtonKey = s.keyPrefix + keySuffix
		}
		b.TextAr, b.TextEn, b.Icon = s.textAr, s.textEn, s.icon
		b.OrderIndex, _ = PinnedOrderIndex(b.ButtonType)
		b.IsEnabled = true
		b.IsHidden = false
		b.IsService = false
		b.MessageAr, b.MessageEn = "", ""
		b.ButtonSize = SizeSmall
	case KindPageSeparator:
		s := specials[b.ButtonType]
		if !strings.HasPrefix(b.ButtonKey, s.keyPrefix) {
			b.ButtonKey = s.keyPrefix + keySuffix
		}
		b.TextAr, b.TextEn, b.Icon = s.textAr, s.textEn, s.icon
		b.IsService = false
	case KindLink:
		b.MessageAr = strings.TrimSpace(b.MessageAr)
		b.MessageEn = b.MessageAr
	}
	return b
}

// ValidateButton reports field problems; prefix is prepended to field names.
func ValidateButton(b Button, prefix string) error {
	verr := &ValidationError{}
	field := func(name string) string { return prefix + name }

	if !b.ButtonType.Valid() {
		verr.Add(field("buttonType"), "unknown button type "+quote(string(b.ButtonType)))
	}
	if msg := checkKey(b.ButtonKey); msg != "" {
		verr.Add(field("buttonKey"), msg)
	}
	if strings.TrimSpace(b.TextAr) == "" {
		verr.Add(field("textAr"), "is required")
	}
	if strings.TrimSpace(b.TextEn) == "" {
		verr.Add(field("textEn"), "is required")
	}
	if b.ButtonType == KindLink && strings.TrimSpace(b.MessageAr) == "" {
		verr.Add(field("messageAr"), "link url is required")
	}
	if b.BackBehavior != BackStep && b.BackBehavior != BackRoot {
		verr.Add(field("backBehavior"), "must be step or root")
	}
	if b.ButtonSize != SizeLarge && b.ButtonSize != SizeSmall {
		verr.Add(field("buttonSize"), "must be large or small")
	}
	if b.Price < 0 || math.IsNaN(b.Price) || math.IsInf(b.Price, 0) {
		verr.Add(field("price"), "must be a non-negative number")
	}
	if b.DefaultQuantity < 1 {
		verr.Add(field("defaultQuantity"), "must be at least 1")
	}
	if b.OrderIndex < 0 {
		verr.Add(field("orderIndex"), "must not be negative")
	}
	return verr.OrNil()
}

func ValidKey(key string) bool { return checkKey(key) == "" }

func checkKey(key string) string {
	if key == "" {
		return "is required"
	}
	if len(key) > maxKeyLength {
		return "must be at most 100 characters"
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return "must not contain spaces"
	}
	return ""
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func quote(s string) string { return "\"" + s + "\"" }
