package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/domain"
)

const (
	settingBotRunning = "bot_running"
	settingRestartAt  = "restart_at"
	noRestart         = "null"

	defaultRestartSeconds = 15
	maxRestartSeconds     = 3600

	// PasswordHashSetting holds the admin password hash in dashboard settings.
	PasswordHashSetting = "admin_password_hash"
)

// BotStatus reads the run flag shared with the bot. A scheduled restart whose
// time has passed is completed here: the bot is marked running again.
func (s *MenuService) BotStatus(ctx context.Context) (domain.BotStatus, error) {
	values, err := s.repo.GetSettings(ctx, domain.ScopeBot)
	if err != nil {
		return domain.BotStatus{}, err
	}
	status := domain.BotStatus{IsRunning: values[settingBotRunning] != "false"}

	raw := strings.TrimSpace(values[settingRestartAt])
	if raw == "" || raw == noRestart {
		return status, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		s.log.Sugar().Warnw("ignoring malformed restart_at", "value", raw)
		return status, nil
	}
	if s.now().Before(at) {
		status.RestartAt = &at
		return status, nil
	}

	err = s.repo.PutSettings(ctx, domain.ScopeBot, map[string]string{
		settingBotRunning: "true",
		settingRestartAt:  noRestart,
	})
	if err != nil {
		return domain.BotStatus{}, err
	}
	s.record(ctx, domain.ActionBotStarted, "bot started after scheduled restart", nil, nil)
	return domain.BotStatus{IsRunning: true}, nil
}

func (s *MenuService) SetBotRunning(ctx context.Context, running bool) (domain.BotStatus, error) {
	err := s.repo.PutSettings(ctx, domain.ScopeBot, map[string]string{
		settingBotRunning: strconv.FormatBool(running),
		settingRestartAt:  noRestart,
	})
	if err != nil {
		return domain.BotStatus{}, err
	}
	if running {
		s.record(ctx, domain.ActionBotStarted, "bot started", nil, nil)
	} else {
		s.record(ctx, domain.ActionBotStopped, "bot stopped", nil, nil)
	}
	return domain.BotStatus{IsRunning: running}, nil
}

// RestartBot stops the bot and schedules it to run again after seconds
// (15 when zero).
func (s *MenuService) RestartBot(ctx context.Context, seconds int) (domain.BotStatus, error) {
	if seconds == 0 {
		seconds = defaultRestartSeconds
	}
	if seconds < 1 || seconds > maxRestartSeconds {
		return domain.BotStatus{}, domain.Invalid("seconds", fmt.Sprintf("must be between 1 and %d", maxRestartSeconds))
	}
	at := s.now().Add(time.Duration(seconds) * time.Second).UTC().Truncate(time.Second)
	err := s.repo.PutSettings(ctx, domain.ScopeBot, map[string]string{
		settingBotRunning: "false",
		settingRestartAt:  at.Format(time.RFC3339),
	})
	if err != nil {
		return domain.BotStatus{}, err
	}
	s.record(ctx, domain.ActionBotRestarted, fmt.Sprintf("bot restart scheduled in %d seconds", seconds), nil,
		map[string]any{"seconds": seconds})
	return domain.BotStatus{IsRunning: false, RestartAt: &at}, nil
}

// Settings returns the dashboard settings without reserved keys.
func (s *MenuService) Settings(ctx context.Context) (map[string]string, error) {
	values, err := s.repo.GetSettings(ctx, domain.ScopeDashboard)
	if err != nil {
		return nil, err
	}
	delete(values, PasswordHashSetting)
	return values, nil
}

func (s *MenuService) UpdateSettings(ctx context.Context, values map[string]string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, domain.Invalid("settings", "at least one setting is required")
	}
	verr := &domain.ValidationError{}
	for key := range values {
		switch {
		case strings.TrimSpace(key) == "":
			verr.Add("settings", "keys must not be empty")
		case key == PasswordHashSetting:
			verr.Add(key, "is reserved")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if err := s.repo.PutSettings(ctx, domain.ScopeDashboard, values); err != nil {
		return nil, err
	}
	s.record(ctx, domain.ActionSettingsUpdated, fmt.Sprintf("%d settings updated", len(values)), nil, nil)
	return s.Settings(ctx)
}

func (s *MenuService) ListOrders(ctx context.Context, limit, offset int) (domain.OrderPage, error) {
	limit = clampLimit(limit, 50, 500)
	offset = max(offset, 0)
	orders, total, err := s.repo.ListOrders(ctx, limit, offset)
	if err != nil {
		return domain.OrderPage{}, err
	}
	return domain.OrderPage{Orders: orders, Total: total, Limit: limit, Offset: offset}, nil
}

// GetOrder returns the order with its recorded button path, when one exists.
func (s *MenuService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	path, err := s.repo.GetOrderPath(ctx, orderID)
	switch {
	case err == nil:
		order.ButtonPath = &path
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Order{}, err
	}
	return order, nil
}

func (s *MenuService) OrderPath(ctx context.Context, orderID string) (domain.OrderButtonPath, error) {
	return s.repo.GetOrderPath(ctx, orderID)
}
