package domain

import "time"

type ButtonKind string

const (
	KindMenu          ButtonKind = "menu"
	KindService       ButtonKind = "service"
	KindMessage       ButtonKind = "message"
	KindLink          ButtonKind = "link"
	KindBack          ButtonKind = "back"
	KindCancel        ButtonKind = "cancel"
	KindPageSeparator ButtonKind = "page_separator"
)

func (k ButtonKind) Valid() bool {
	switch k {
	case KindMenu, KindService, KindMessage, KindLink, KindBack, KindCancel, KindPageSeparator:
		return true
	}
	return false
}

// Special kinds have their key, texts and icon generated rather than typed in.
func (k ButtonKind) Special() bool {
	return k == KindBack || k == KindCancel || k == KindPageSeparator
}

// Pinned kinds keep a fixed order index at the end of their sibling list.
func (k ButtonKind) Pinned() bool {
	return k == KindBack || k == KindCancel
}

type BackBehavior string

const (
	BackStep BackBehavior = "step"
	BackRoot BackBehavior = "root"
)

type ButtonSize string

const (
	SizeLarge ButtonSize = "large"
	SizeSmall ButtonSize = "small"
)

const (
	BackOrderIndex         = 9998
	CancelOrderIndex       = 9999
	DefaultDisabledMessage = "هذه الخدمة متوقفة مؤقتاً"
	CallbackPrefix         = "dyn_"
)

type Button struct {
	ID                   uint         `json:"id"`
	ParentID             *uint        `json:"parentId"`
	ButtonKey            string       `json:"buttonKey"`
	TextAr               string       `json:"textAr"`
	TextEn               string       `json:"textEn"`
	ButtonType           ButtonKind   `json:"buttonType"`
	IsEnabled            bool         `json:"isEnabled"`
	IsHidden             bool         `json:"isHidden"`
	DisabledMessage      string       `json:"disabledMessage"`
	IsService            bool         `json:"isService"`
	Price                float64      `json:"price"`
	AskQuantity          bool         `json:"askQuantity"`
	DefaultQuantity      int          `json:"defaultQuantity"`
	ShowBackOnQuantity   bool         `json:"showBackOnQuantity"`
	ShowCancelOnQuantity bool         `json:"showCancelOnQuantity"`
	BackBehavior         BackBehavior `json:"backBehavior"`
	MessageAr            string       `json:"messageAr"`
	MessageEn            string       `json:"messageEn"`
	OrderIndex           int          `json:"orderIndex"`
	Icon                 string       `json:"icon"`
	CallbackData         string       `json:"callbackData"`
	ButtonSize           ButtonSize   `json:"buttonSize"`
	CreatedAt            time.Time    `json:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt"`
}

func (b Button) IsRoot() bool { return b.ParentID == nil }

func (b Button) SameParent(parentID *uint) bool {
	return sameParent(b.ParentID, parentID)
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ButtonNode is a Button with its ordered children attached.
type ButtonNode struct {
	Button
	Children []*ButtonNode `json:"children"`
}

// Walk visits the node and its descendants depth first.
func (n *ButtonNode) Walk(fn func(*ButtonNode)) {
	fn(n)
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

func (n *ButtonNode) Count() int {
	total := 0
	n.Walk(func(*ButtonNode) { total++ })
	return total
}

type InsertPosition string

const (
	InsertTop    InsertPosition = "top"
	InsertCenter InsertPosition = "center"
	InsertEnd    InsertPosition = "end"
)

type ReorderPosition string

const (
	ReorderBefore ReorderPosition = "before"
	ReorderAfter  ReorderPosition = "after"
	ReorderInside ReorderPosition = "inside"
)

type ActivityAction string

const (
	ActionButtonCreated       ActivityAction = "button_created"
	ActionButtonUpdated       ActivityAction = "button_updated"
	ActionButtonDeleted       ActivityAction = "button_deleted"
	ActionButtonEnabled       ActivityAction = "button_enabled"
	ActionButtonDisabled      ActivityAction = "button_disabled"
	ActionButtonClicked       ActivityAction = "button_clicked"
	ActionButtonsImported     ActivityAction = "buttons_imported"
	ActionButtonsReset        ActivityAction = "buttons_reset"
	ActionButtonsBatchCreated ActivityAction = "buttons_batch_created"
	ActionButtonsCopied       ActivityAction = "buttons_copied"
	ActionButtonsReordered    ActivityAction = "buttons_reordered"
	ActionBotStarted          ActivityAction = "bot_started"
	ActionBotStopped          ActivityAction = "bot_stopped"
	ActionBotRestarted        ActivityAction = "bot_restarted"
	ActionSettingsUpdated     ActivityAction = "settings_updated"
)

type ActivityLog struct {
	ID        uint           `json:"id"`
	Action    ActivityAction `json:"action"`
	Details   string         `json:"details"`
	ButtonID  *uint          `json:"buttonId"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type BotStatus struct {
	IsRunning bool       `json:"isRunning"`
	RestartAt *time.Time `json:"restartAt"`
}

type Order struct {
	ID            uint             `json:"id"`
	OrderID       string           `json:"orderId"`
	OdooOrder     string           `json:"odooOrder,omitempty"`
	UserID        int64            `json:"userId"`
	ProxyType     string           `json:"proxyType"`
	ProxyCountry  string           `json:"proxyCountry,omitempty"`
	ProxyDuration string           `json:"proxyDuration,omitempty"`
	Status        string           `json:"status"`
	TotalPrice    float64          `json:"totalPrice"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	ExpiryDate    string           `json:"expiryDate,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	ButtonPath    *OrderButtonPath `json:"buttonPath,omitempty"`
}

// OrderButtonPath records the menu path a customer took to place an order.
type OrderButtonPath struct {
	ID            uint      `json:"id"`
	OrderID       string    `json:"orderId"`
	UserID        int64     `json:"userId"`
	ButtonPath    string    `json:"buttonPath"`
	ButtonNamesAr string    `json:"buttonNamesAr"`
	ButtonNamesEn string    `json:"buttonNamesEn"`
	CreatedAt     time.Time `json:"createdAt"`
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
