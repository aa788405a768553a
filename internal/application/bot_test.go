package application

import (
	"testing"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/adapters/db/sqlstore"
	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestBotRestartCompletesOnRead(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc

	status, err := svc.BotStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.IsRunning)
	require.Nil(t, status.RestartAt)

	status, err = svc.RestartBot(ctx, 30)
	require.NoError(t, err)
	require.False(t, status.IsRunning)
	require.True(t, testNow.Add(30*time.Second).Equal(*status.RestartAt))

	*env.clock = testNow.Add(10 * time.Second)
	status, err = svc.BotStatus(ctx)
	require.NoError(t, err)
	require.False(t, status.IsRunning)
	require.NotNil(t, status.RestartAt)

	*env.clock = testNow.Add(31 * time.Second)
	status, err = svc.BotStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.IsRunning)
	require.Nil(t, status.RestartAt)

	values, err := env.repo.GetSettings(ctx, domain.ScopeBot)
	require.NoError(t, err)
	require.Equal(t, "true", values["bot_running"])
	require.Equal(t, "null", values["restart_at"])

	actions := activityActions(t, ctx, svc)
	require.Contains(t, actions, domain.ActionBotRestarted)
	require.Contains(t, actions, domain.ActionBotStarted)
}

func TestBotRestartBounds(t *testing.T) {
	env, ctx := newTestEnv(t)

	status, err := env.svc.RestartBot(ctx, 0)
	require.NoError(t, err)
	require.True(t, testNow.Add(15*time.Second).Equal(*status.RestartAt))

	for _, seconds := range []int{-1, 3601} {
		_, err := env.svc.RestartBot(ctx, seconds)
		require.True(t, domain.IsValidation(err), "seconds %d", seconds)
	}
}

func TestSetBotRunningClearsSchedule(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc

	_, err := svc.RestartBot(ctx, 60)
	require.NoError(t, err)
	status, err := svc.SetBotRunning(ctx, false)
	require.NoError(t, err)
	require.False(t, status.IsRunning)

	*env.clock = testNow.Add(time.Hour)
	status, err = svc.BotStatus(ctx)
	require.NoError(t, err)
	require.False(t, status.IsRunning)
	require.Nil(t, status.RestartAt)
	require.Contains(t, activityActions(t, ctx, svc), domain.ActionBotStopped)

	require.NoError(t, env.repo.PutSettings(ctx, domain.ScopeBot, map[string]string{"restart_at": "soon"}))
	status, err = svc.BotStatus(ctx)
	require.NoError(t, err)
	require.Nil(t, status.RestartAt)
}

func TestSettingsHideReservedKeys(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc
	require.NoError(t, env.repo.PutSettings(ctx, domain.ScopeDashboard, map[string]string{PasswordHashSetting: "hash"}))

	values, err := svc.UpdateSettings(ctx, map[string]string{"theme": "dark", "lang": "ar"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"theme": "dark", "lang": "ar"}, values)

	_, err = svc.UpdateSettings(ctx, map[string]string{PasswordHashSetting: "x"})
	require.True(t, domain.IsValidation(err))
	_, err = svc.UpdateSettings(ctx, map[string]string{" ": "x"})
	require.True(t, domain.IsValidation(err))
	_, err = svc.UpdateSettings(ctx, nil)
	require.True(t, domain.IsValidation(err))

	stored, ok, err := env.repo.GetSetting(ctx, domain.ScopeDashboard, PasswordHashSetting)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hash", stored)
	require.Contains(t, activityActions(t, ctx, svc), domain.ActionSettingsUpdated)
}

func TestOrdersWithButtonPath(t *testing.T) {
	env, ctx := newTestEnv(t)
	svc := env.svc

	require.NoError(t, env.db.Create(&[]sqlstore.OrderModel{
		{OrderID: "ORD-1", UserID: 42, ProxyType: "static", Status: "pending", TotalPrice: 10},
		{OrderID: "ORD-2", UserID: 43, ProxyType: "socks", Status: "done", TotalPrice: 5},
	}).Error)
	require.NoError(t, env.db.Create(&sqlstore.OrderPathModel{
		OrderID:       "ORD-1",
		UserID:        42,
		ButtonPath:    "static_proxy > us",
		ButtonNamesEn: "Static Proxy > US",
	}).Error)

	page, err := svc.ListOrders(ctx, 0, -5)
	require.NoError(t, err)
	require.EqualValues(t, 2, page.Total)
	require.Equal(t, 50, page.Limit)
	require.Zero(t, page.Offset)
	require.Len(t, page.Orders, 2)

	order, err := svc.GetOrder(ctx, "ORD-1")
	require.NoError(t, err)
	require.NotNil(t, order.ButtonPath)
	require.Equal(t, "static_proxy > us", order.ButtonPath.ButtonPath)

	order, err = svc.GetOrder(ctx, "ORD-2")
	require.NoError(t, err)
	require.Nil(t, order.ButtonPath)

	_, err = svc.OrderPath(ctx, "ORD-2")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.GetOrder(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
