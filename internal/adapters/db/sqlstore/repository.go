package sqlstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type MenuRepository struct {
	db *gorm.DB
}

var _ domain.MenuRepository = (*MenuRepository)(nil)

// Open connects to sqlite (modernc, pure Go) or postgres. Slow queries and
// errors from gorm go to log; a nil log discards them.
func Open(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &gorm.Config{
		Logger: logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}

	switch driver {
	case DriverSQLite, "":
		return gorm.Open(sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        sqliteDSN(dsn),
		}, cfg)
	case DriverPostgres:
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) WithinTx(ctx context.Context, fn func(tx domain.MenuRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MenuRepository{db: tx})
	})
}

func (r *MenuRepository) CreateButton(ctx context.Context, value domain.Button) (domain.Button, error) {
	m := toButtonModel(value)
	m.ID = 0
	m.CallbackData = ""

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		m.CallbackData = domain.CallbackPrefix + strconv.FormatUint(uint64(m.ID), 10)
		return tx.Model(&ButtonModel{}).Where("id = ?", m.ID).UpdateColumn("callback_data", m.CallbackData).Error
	})
	if err != nil {
		return domain.Button{}, err
	}
	return toButton(m), nil
}

func (r *MenuRepository) GetButton(ctx context.Context, id uint) (domain.Button, error) {
	var m ButtonModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Button{}, fmt.Errorf("button %d: %w", id, domain.ErrNotFound)
		}
		return domain.Button{}, err
	}
	return toButton(m), nil
}

func (r *MenuRepository) ListButtons(ctx context.Context) ([]domain.Button, error) {
	rows := make([]ButtonModel, 0)
	if err := r.db.WithContext(ctx).Order("order_index ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toButtons(rows), nil
}

func (r *MenuRepository) ListChildren(ctx context.Context, parentID *uint) ([]domain.Button, error) {
	q := r.db.WithContext(ctx).Model(&ButtonModel{})
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	rows := make([]ButtonModel, 0)
	if err := q.Order("order_index ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toButtons(rows), nil
}

func (r *MenuRepository) UpdateButton(ctx context.Context, id uint, patch domain.ButtonPatch) (domain.Button, error) {
	columns := patchColumns(patch)
	columns["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&ButtonModel{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return domain.Button{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Button{}, fmt.Errorf("button %d: %w", id, domain.ErrNotFound)
	}
	return r.GetButton(ctx, id)
}

func (r *MenuRepository) DeleteButtons(ctx context.Context, ids ...uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&ButtonModel{})
	return res.RowsAffected, res.Error
}

func (r *MenuRepository) DeleteAllButtons(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&ButtonModel{}).Error
}

func (r *MenuRepository) ButtonKeyExists(ctx context.Context, key string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&ButtonModel{}).Where("button_key = ?", key)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *MenuRepository) AppendActivity(ctx context.Context, value domain.ActivityLog) error {
	m := ActivityLogModel{Action: string(value.Action), Details: value.Details, ButtonID: value.ButtonID}
	if len(value.Metadata) > 0 {
		raw, err := json.Marshal(value.Metadata)
		if err != nil {
			return err
		}
		m.Metadata = datatypes.JSON(raw)
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

func (r *MenuRepository) ListActivity(ctx context.Context, limit int) ([]domain.ActivityLog, error) {
	rows := make([]ActivityLogModel, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.ActivityLog, 0, len(rows))
	for _, m := range rows {
		item := domain.ActivityLog{
			ID:        m.ID,
			Action:    domain.ActivityAction(m.Action),
			Details:   m.Details,
			ButtonID:  m.ButtonID,
			CreatedAt: m.CreatedAt,
		}
		if len(m.Metadata) > 0 {
			if err := json.Unmarshal(m.Metadata, &item.Metadata); err != nil {
				return nil, fmt.Errorf("activity %d metadata: %w", m.ID, err)
			}
		}
		result = append(result, item)
	}
	return result, nil
}

func (r *MenuRepository) GetSettings(ctx context.Context, scope domain.SettingsScope) (map[string]string, error) {
	t := settingsTableFor(scope)
	type row struct {
		Key   string
		Value string
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Table(t.name).
		Select(t.key + " AS key, " + t.value + " AS value").
		Order(t.key + " ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, rw := range rows {
		out[rw.Key] = rw.Value
	}
	return out, nil
}

func (r *MenuRepository) GetSetting(ctx context.Context, scope domain.SettingsScope, key string) (string, bool, error) {
	t := settingsTableFor(scope)
	type row struct {
		Value string
	}
	rows := make([]row, 0, 1)
	err := r.db.WithContext(ctx).Table(t.name).
		Select(t.value+" AS value").
		Where(t.key+" = ?", key).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Value, true, nil
}

func (r *MenuRepository) PutSettings(ctx context.Context, scope domain.SettingsScope, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	t := settingsTableFor(scope)
	now := time.Now().UTC()
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: t.key}},
		DoUpdates: clause.AssignmentColumns([]string{t.value, "updated_at"}),
	}
	db := r.db.WithContext(ctx).Clauses(upsert)

	if scope == domain.ScopeBot {
		rows := make([]BotSettingModel, 0, len(values))
		for k, v := range values {
			rows = append(rows, BotSettingModel{SettingKey: k, SettingValue: v, UpdatedAt: now})
		}
		return db.Create(&rows).Error
	}
	rows := make([]DashboardSettingModel, 0, len(values))
	for k, v := range values {
		rows = append(rows, DashboardSettingModel{Key: k, Value: v, UpdatedAt: now})
	}
	return db.Create(&rows).Error
}

type settingsTable struct {
	name, key, value string
}

func settingsTableFor(scope domain.SettingsScope) settingsTable {
	if scope == domain.ScopeBot {
		return settingsTable{name: BotSettingModel{}.TableName(), key: "setting_key", value: "setting_value"}
	}
	return settingsTable{name: DashboardSettingModel{}.TableName(), key: "key", value: "value"}
}

func (r *MenuRepository) ListOrders(ctx context.Context, limit, offset int) ([]domain.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := make([]OrderModel, 0)
	if err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	result := make([]domain.Order, 0, len(rows))
	for _, m := range rows {
		result = append(result, toOrder(m))
	}
	return result, total, nil
}

func (r *MenuRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	var m OrderModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
		}
		return domain.Order{}, err
	}
	return toOrder(m), nil
}

// GetOrderPath returns the most recent path row recorded for the order.
func (r *MenuRepository) GetOrderPath(ctx context.Context, orderID string) (domain.OrderButtonPath, error) {
	var m OrderPathModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id DESC").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.OrderButtonPath{}, fmt.Errorf("order path %s: %w", orderID, domain.ErrNotFound)
		}
		return domain.OrderButtonPath{}, err
	}
	return domain.OrderButtonPath{
		ID:            m.ID,
		OrderID:       m.OrderID,
		UserID:        m.UserID,
		ButtonPath:    m.ButtonPath,
		ButtonNamesAr: m.ButtonNamesAr,
		ButtonNamesEn: m.ButtonNamesEn,
		CreatedAt:     m.CreatedAt,
	}, nil
}

func toOrder(m OrderModel) domain.Order {
	return domain.Order{
		ID:            m.ID,
		OrderID:       m.OrderID,
		OdooOrder:     m.OdooOrder,
		UserID:        m.UserID,
		ProxyType:     m.ProxyType,
		ProxyCountry:  m.ProxyCountry,
		ProxyDuration: m.ProxyDuration,
		Status:        m.Status,
		TotalPrice:    m.TotalPrice,
		PaymentMethod: m.PaymentMethod,
		Notes:         m.Notes,
		ExpiryDate:    m.ExpiryDate,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func toButtonModel(b domain.Button) ButtonModel {
	return ButtonModel{
		ID:                   b.ID,
		ParentID:             b.ParentID,
		ButtonKey:            b.ButtonKey,
		TextAr:               b.TextAr,
		TextEn:               b.TextEn,
		ButtonType:           string(b.ButtonType),
		IsEnabled:            b.IsEnabled,
		IsHidden:             b.IsHidden,
		DisabledMessage:      b.DisabledMessage,
		IsService:            b.IsService,
		Price:                b.Price,
		AskQuantity:          b.AskQuantity,
		DefaultQuantity:      b.DefaultQuantity,
		ShowBackOnQuantity:   b.ShowBackOnQuantity,
		ShowCancelOnQuantity: b.ShowCancelOnQuantity,
		BackBehavior:         string(b.BackBehavior),
		MessageAr:            b.MessageAr,
		MessageEn:            b.MessageEn,
		OrderIndex:           b.OrderIndex,
		Icon:                 b.Icon,
		CallbackData:         b.CallbackData,
		ButtonSize:           string(b.ButtonSize),
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
}

func toButton(m ButtonModel) domain.Button {
	return domain.Button{
		ID:                   m.ID,
		ParentID:             m.ParentID,
		ButtonKey:            m.ButtonKey,
		TextAr:               m.TextAr,
		TextEn:               m.TextEn,
		ButtonType:           domain.ButtonKind(m.ButtonType),
		IsEnabled:            m.IsEnabled,
		IsHidden:             m.IsHidden,
		DisabledMessage:      m.DisabledMessage,
		IsService:            m.IsService,
		Price:                m.Price,
		AskQuantity:          m.AskQuantity,
		DefaultQuantity:      m.DefaultQuantity,
		ShowBackOnQuantity:   m.ShowBackOnQuantity,
		ShowCancelOnQuantity: m.ShowCancelOnQuantity,
		BackBehavior:         domain.BackBehavior(m.BackBehavior),
		MessageAr:            m.MessageAr,
		MessageEn:            m.MessageEn,
		OrderIndex:           m.OrderIndex,
		Icon:                 m.Icon,
		CallbackData:         m.CallbackData,
		ButtonSize:           domain.ButtonSize(m.ButtonSize),
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func toButtons(rows []ButtonModel) []domain.Button {
	result := make([]domain.Button, 0, len(rows))
	for _, m := range rows {
		result = append(result, toButton(m))
	}
	return result
}

func patchColumns(p domain.ButtonPatch) map[string]any {
	cols := make(map[string]any)
	if p.ParentID.Set {
		cols["parent_id"] = p.ParentID.Value
	}
	put := func(name string, set bool, value func() any) {
		if set {
			cols[name] = value()
		}
	}
	put("button_key", p.ButtonKey != nil, func() any { return *p.ButtonKey })
	put("text_ar", p.TextAr != nil, func() any { return *p.TextAr })
	put("text_en", p.TextEn != nil, func() any { return *p.TextEn })
	put("button_type", p.ButtonType != nil, func() any { return string(*p.ButtonType) })
	put("is_enabled", p.IsEnabled != nil, func() any { return *p.IsEnabled })
	put("is_hidden", p.IsHidden != nil, func() any { return *p.IsHidden })
	put("disabled_message", p.DisabledMessage != nil, func() any { return *p.DisabledMessage })
	put("is_service", p.IsService != nil, func() any { return *p.IsService })
	put("price", p.Price != nil, func() any { return *p.Price })
	put("ask_quantity", p.AskQuantity != nil, func() any { return *p.AskQuantity })
	put("default_quantity", p.DefaultQuantity != nil, func() any { return *p.DefaultQuantity })
	put("show_back_on_quantity", p.ShowBackOnQuantity != nil, func() any { return *p.ShowBackOnQuantity })
	put("show_cancel_on_quantity", p.ShowCancelOnQuantity != nil, func() any { return *p.ShowCancelOnQuantity })
	put("back_behavior", p.BackBehavior != nil, func() any { return string(*p.BackBehavior) })
	put("message_ar", p.MessageAr != nil, func() any { return *p.MessageAr })
	put("message_en", p.MessageEn != nil, func() any { return *p.MessageEn })
	put("order_index", p.OrderIndex != nil, func() any { return *p.OrderIndex })
	put("icon", p.Icon != nil, func() any { return *p.Icon })
	put("callback_data", p.CallbackData != nil, func() any { return *p.CallbackData })
	put("button_size", p.ButtonSize != nil, func() any { return string(*p.ButtonSize) })
	return cols
}
