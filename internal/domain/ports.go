package domain

import (
	"context"
	"time"
)

// ButtonStore is durable CRUD over the flat button table. Lookups of unknown
// ids return ErrNotFound.
type ButtonStore interface {
	// CreateButton inserts the row, then finalizes callbackData from the new id.
	CreateButton(ctx context.Context, value Button) (Button, error)
	GetButton(ctx context.Context, id uint) (Button, error)
	ListButtons(ctx context.Context) ([]Button, error)
	ListChildren(ctx context.Context, parentID *uint) ([]Button, error)
	UpdateButton(ctx context.Context, id uint, patch ButtonPatch) (Button, error)
	DeleteButtons(ctx context.Context, ids ...uint) (int64, error)
	DeleteAllButtons(ctx context.Context) error
	ButtonKeyExists(ctx context.Context, key string, excludeID uint) (bool, error)
}

type ActivityStore interface {
	AppendActivity(ctx context.Context, value ActivityLog) error
	ListActivity(ctx context.Context, limit int) ([]ActivityLog, error)
}

// SettingsStore is a string key-value table; scope selects bot or dashboard settings.
type SettingsStore interface {
	GetSettings(ctx context.Context, scope SettingsScope) (map[string]string, error)
	GetSetting(ctx context.Context, scope SettingsScope, key string) (string, bool, error)
	PutSettings(ctx context.Context, scope SettingsScope, values map[string]string) error
}

type SettingsScope string

const (
	ScopeBot       SettingsScope = "bot"
	ScopeDashboard SettingsScope = "dashboard"
)

type OrderStore interface {
	ListOrders(ctx context.Context, limit, offset int) ([]Order, int64, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetOrderPath(ctx context.Context, orderID string) (OrderButtonPath, error)
}

type MenuRepository interface {
	ButtonStore
	ActivityStore
	SettingsStore
	OrderStore

	// WithinTx runs fn against a repository bound to one transaction.
	WithinTx(ctx context.Context, fn func(tx MenuRepository) error) error
}

// SessionStore keeps hashed session tokens with a time to live.
type SessionStore interface {
	Save(ctx context.Context, tokenHash string, ttl time.Duration) error
	Exists(ctx context.Context, tokenHash string) (bool, error)
	Delete(ctx context.Context, tokenHash string) error
	DeleteAll(ctx context.Context) error
}
