package sqlstore

import (
	"time"

	"gorm.io/datatypes"
)

type ButtonModel struct {
	ID                   uint    `gorm:"primaryKey"`
	ParentID             *uint   `gorm:"index:idx_dynamic_buttons_parent_order,priority:1"`
	ButtonKey            string  `gorm:"not null;index"`
	TextAr               string  `gorm:"not null"`
	TextEn               string  `gorm:"not null"`
	ButtonType           string  `gorm:"not null"`
	IsEnabled            bool    `gorm:"not null"`
	IsHidden             bool    `gorm:"not null"`
	DisabledMessage      string  `gorm:"not null"`
	IsService            bool    `gorm:"not null"`
	Price                float64 `gorm:"not null"`
	AskQuantity          bool    `gorm:"not null"`
	DefaultQuantity      int     `gorm:"not null"`
	ShowBackOnQuantity   bool    `gorm:"not null"`
	ShowCancelOnQuantity bool    `gorm:"not null"`
	BackBehavior         string  `gorm:"not null"`
	MessageAr            string
	MessageEn            string
	OrderIndex           int `gorm:"not null;index:idx_dynamic_buttons_parent_order,priority:2"`
	Icon                 string
	CallbackData         string
	ButtonSize           string `gorm:"not null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (ButtonModel) TableName() string { return "dynamic_buttons" }

type ActivityLogModel struct {
	ID        uint   `gorm:"primaryKey"`
	Action    string `gorm:"not null;index"`
	Details   string
	ButtonID  *uint
	Metadata  datatypes.JSON
	CreatedAt time.Time `gorm:"index"`
}

func (ActivityLogModel) TableName() string { return "activity_logs" }

// BotSettingModel is shared with the bot process, hence the prefixed column names.
type BotSettingModel struct {
	SettingKey   string `gorm:"primaryKey"`
	SettingValue string
	UpdatedAt    time.Time
}

func (BotSettingModel) TableName() string { return "bot_settings" }

type DashboardSettingModel struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (DashboardSettingModel) TableName() string { return "dashboard_settings" }

type OrderModel struct {
	ID            uint   `gorm:"primaryKey"`
	OrderID       string `gorm:"uniqueIndex;not null"`
	OdooOrder     string
	UserID        int64  `gorm:"index;not null"`
	ProxyType     string `gorm:"not null"`
	ProxyCountry  string
	ProxyDuration string
	Status        string `gorm:"not null"`
	TotalPrice    float64
	PaymentMethod string
	Notes         string
	ExpiryDate    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (OrderModel) TableName() string { return "orders" }

type OrderPathModel struct {
	ID            uint   `gorm:"primaryKey"`
	OrderID       string `gorm:"not null;index"`
	UserID        int64  `gorm:"not null"`
	ButtonPath    string `gorm:"not null"`
	ButtonNamesAr string
	ButtonNamesEn string
	CreatedAt     time.Time
}

func (OrderPathModel) TableName() string { return "order_button_path" }
