package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/adapters/db/sqlstore"
	"github.com/SAMZalaf/bmomtm/internal/adapters/session"
	"github.com/SAMZalaf/bmomtm/internal/application"
	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/SAMZalaf/bmomtm/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "secret1"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "http.db"), nil)
	require.NoError(t, err)
	require.NoError(t, sqlstore.RunMigrations(ctx, db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := sqlstore.NewMenuRepository(db)
	metrics := observability.InitMetrics(prometheus.NewRegistry())
	menu := application.NewMenuService(repo, application.WithObserver(metrics))
	store := session.NewMemoryStore(0, nil)
	t.Cleanup(func() { _ = store.Close() })
	auth := application.NewAuthService(repo, store, time.Hour, nil)
	require.NoError(t, auth.Bootstrap(ctx, testPassword))

	return NewRouter(menu, auth, zap.NewNop(), metrics)
}

type call struct {
	method string
	path   string
	body   string
	token  string
	cookie string
	form   bool
}

func do(t *testing.T, h http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	switch {
	case c.form:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case c.body != "":
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: c.cookie})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, call{method: http.MethodPost, path: "/api/auth/login", body: `{"password":"` + testPassword + `"}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decode[map[string]string](t, rec)["token"]
	require.NotEmpty(t, token)
	return token
}

func TestAPIRequiresAuth(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, call{method: http.MethodGet, path: "/api/buttons/tree"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, codeUnauthorized, decode[errorBody](t, rec).Code)

	rec = do(t, h, call{method: http.MethodGet, path: "/api/buttons/tree", token: "forged"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/auth/login", body: `{"password":"nope"}`})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token := login(t, h)
	rec = do(t, h, call{method: http.MethodPost, path: "/api/auth/verify", body: `{"token":"` + token + `"}`})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode[map[string]bool](t, rec)["valid"])

	rec = do(t, h, call{method: http.MethodGet, path: "/api/buttons/tree", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, h, call{method: http.MethodPost, path: "/api/auth/logout", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, call{method: http.MethodPost, path: "/api/auth/verify", body: `{"token":"` + token + `"}`})
	require.False(t, decode[map[string]bool](t, rec)["valid"])
}

func TestAPIButtonLifecycle(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h)

	rec := do(t, h, call{method: http.MethodPost, path: "/api/buttons", token: token,
		body: `{"buttonKey":"shop","textAr":"متجر","textEn":"Shop"}`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	shop := decode[domain.Button](t, rec)
	require.Equal(t, fmt.Sprintf("dyn_%d", shop.ID), shop.CallbackData)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons", token: token,
		body: fmt.Sprintf(`{"parentId":%d,"buttonKey":"item","textAr":"بند","textEn":"Item","buttonType":"service","price":10}`, shop.ID)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[domain.Button](t, rec)

	rec = do(t, h, call{method: http.MethodGet, path: "/api/buttons/tree", token: token})
	tree := decode[[]domain.ButtonNode](t, rec)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, item.ID, tree[0].Children[0].ID)

	rec = do(t, h, call{method: http.MethodGet, path: fmt.Sprintf("/api/buttons?parentId=%d", shop.ID), token: token})
	require.Len(t, decode[[]domain.Button](t, rec), 1)
	rec = do(t, h, call{method: http.MethodGet, path: "/api/buttons?parentId=root", token: token})
	require.Len(t, decode[[]domain.Button](t, rec), 1)

	rec = do(t, h, call{method: http.MethodPatch, path: fmt.Sprintf("/api/buttons/%d", item.ID), token: token,
		body: `{"price":12.5,"isEnabled":false}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[domain.Button](t, rec)
	require.Equal(t, 12.5, updated.Price)
	require.False(t, updated.IsEnabled)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons", token: token,
		body: `{"buttonKey":"shop","textAr":"x","textEn":"x"}`})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons", token: token,
		body: `{"parentId":999,"buttonKey":"lost","textAr":"x","textEn":"x"}`})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons", token: token, body: `{"buttonKey":"x"}`})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	require.Equal(t, codeValidation, body.Code)
	require.Contains(t, body.Details, domain.FieldError{Field: "textAr", Message: "is required"})

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons", token: token, body: `{"buttonKey":`})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusNotFound, do(t, h, call{method: http.MethodGet, path: "/api/buttons/999", token: token}).Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, call{method: http.MethodGet, path: "/api/buttons/abc", token: token}).Code)

	rec = do(t, h, call{method: http.MethodPost, path: fmt.Sprintf("/api/buttons/%d/click", item.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, call{method: http.MethodDelete, path: fmt.Sprintf("/api/buttons/%d", shop.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, decode[map[string]int](t, rec)["deleted"])
}

func TestAPIBatchCopyReorder(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h)

	rec := do(t, h, call{method: http.MethodPost, path: "/api/buttons/batch", token: token, body: `{"buttons":[
		{"buttonKey":"a","textAr":"a","textEn":"a"},
		{"buttonKey":"b","textAr":"b","textEn":"b"}
	]}`})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	batch := decode[struct {
		Buttons []domain.Button `json:"buttons"`
		Count   int             `json:"count"`
	}](t, rec)
	require.Equal(t, 2, batch.Count)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons/batch", token: token,
		body: `[{"buttonKey":"c","textAr":"c","textEn":"c"},{"buttonKey":"d","textEn":"d"}]`})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[errorBody](t, rec).Details, domain.FieldError{Field: "items[1].textAr", Message: "is required"})

	a, b := batch.Buttons[0], batch.Buttons[1]
	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons/copy-with-children", token: token,
		body: fmt.Sprintf(`{"sourceButtonId":%d,"copyCount":2,"copyNames":[{"buttonKey":"a2"}],"insertAfterButtonId":%d}`, a.ID, a.ID)})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, 2, decode[application.CopyResult](t, rec).TotalCreated)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons/reorder", token: token,
		body: fmt.Sprintf(`{"buttonId":%d,"targetId":%d,"position":"before"}`, b.ID, a.ID)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, call{method: http.MethodGet, path: "/api/buttons?parentId=", token: token})
	roots := decode[[]domain.Button](t, rec)
	require.Len(t, roots, 4)
	require.Equal(t, "b", roots[0].ButtonKey)
	require.Equal(t, "a", roots[1].ButtonKey)
	require.Equal(t, "a2", roots[2].ButtonKey)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons/reorder", token: token,
		body: fmt.Sprintf(`{"buttonId":%d,"targetId":%d,"position":"sideways"}`, b.ID, a.ID)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIExportImportReset(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h)

	rec := do(t, h, call{method: http.MethodPost, path: "/api/buttons/reset", token: token})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, call{method: http.MethodGet, path: "/api/export", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	disposition := rec.Header().Get("Content-Disposition")
	require.True(t, strings.HasPrefix(disposition, "attachment; filename=telegram-bot-buttons-"), disposition)
	require.True(t, strings.HasSuffix(disposition, ".json"), disposition)
	exported := rec.Body.String()
	require.Len(t, decode[[]domain.ButtonNode](t, rec), 2)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons/import", token: token, body: `{"buttons":` + exported + `}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 2, decode[map[string]int](t, rec)["imported"])

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons/import", token: token, body: `"nope"`})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[errorBody](t, rec).Error, "input must be an array of buttons")

	rec = do(t, h, call{method: http.MethodGet, path: "/api/buttons/pages", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	pages := decode[[]domain.Page](t, rec)
	require.Len(t, pages, 1)
	require.Len(t, pages[0].Buttons, 2)
}

func TestAPIBotSettingsOrdersLogs(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h)

	rec := do(t, h, call{method: http.MethodGet, path: "/api/bot/status", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode[domain.BotStatus](t, rec).IsRunning)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/bot/restart", token: token, body: `{"seconds":60}`})
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[domain.BotStatus](t, rec)
	require.False(t, status.IsRunning)
	require.NotNil(t, status.RestartAt)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/bot/status", token: token, body: `{}`})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, call{method: http.MethodPost, path: "/api/bot/status", token: token, body: `{"isRunning":true}`})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode[domain.BotStatus](t, rec).IsRunning)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/settings", token: token, body: `{"welcome":"hi"}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, call{method: http.MethodGet, path: "/api/settings", token: token})
	require.Equal(t, map[string]string{"welcome": "hi"}, decode[map[string]string](t, rec))

	rec = do(t, h, call{method: http.MethodGet, path: "/api/orders?limit=10", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[domain.OrderPage](t, rec)
	require.Zero(t, page.Total)
	require.Equal(t, 10, page.Limit)
	require.Equal(t, http.StatusNotFound, do(t, h, call{method: http.MethodGet, path: "/api/orders/none", token: token}).Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, call{method: http.MethodGet, path: "/api/orders?limit=x", token: token}).Code)

	rec = do(t, h, call{method: http.MethodGet, path: "/api/logs?limit=2", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]domain.ActivityLog](t, rec)
	require.Len(t, entries, 2)
}

func TestAPIChangePasswordRevokesSessions(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h)

	rec := do(t, h, call{method: http.MethodPost, path: "/api/auth/password", token: token,
		body: `{"currentPassword":"` + testPassword + `","newPassword":"another-one"}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	fresh := decode[map[string]string](t, rec)["token"]

	require.Equal(t, http.StatusUnauthorized, do(t, h, call{method: http.MethodGet, path: "/api/logs", token: token}).Code)
	require.Equal(t, http.StatusOK, do(t, h, call{method: http.MethodGet, path: "/api/logs", token: fresh}).Code)
}

func TestGUILoginAndCommands(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, call{method: http.MethodGet, path: "/"})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	rec = do(t, h, call{method: http.MethodPost, path: "/login", body: "password=wrong", form: true})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid password")

	rec = do(t, h, call{method: http.MethodPost, path: "/login", body: "password=" + testPassword, form: true})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	var cookie string
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c.Value
		}
	}
	require.NotEmpty(t, cookie)

	rec = do(t, h, call{method: http.MethodPost, path: "/api/buttons", cookie: cookie,
		body: `{"buttonKey":"shop","textAr":"متجر","textEn":"Shop"}`})
	require.Equal(t, http.StatusCreated, rec.Code)
	shop := decode[domain.Button](t, rec)

	rec = do(t, h, call{method: http.MethodGet, path: "/", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `<section id="tree">`)
	require.Contains(t, rec.Body.String(), "Shop")

	rec = do(t, h, call{method: http.MethodPost, path: "/commands/toggle", cookie: cookie, body: fmt.Sprintf(`{"buttonId":%d}`, shop.ID)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `class="flash flash-info"`)
	require.Contains(t, rec.Body.String(), "disabled")
	require.Contains(t, rec.Body.String(), `<section id="tree">`)

	rec = do(t, h, call{method: http.MethodPost, path: "/commands/delete", cookie: cookie, body: `{"buttonId":999}`})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "flash-error")

	rec = do(t, h, call{method: http.MethodPost, path: "/commands/delete", cookie: cookie, body: `{}`})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, call{method: http.MethodPost, path: "/commands/delete", cookie: cookie, body: fmt.Sprintf(`{"buttonId":%d}`, shop.ID)})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "No buttons yet.")

	rec = do(t, h, call{method: http.MethodPost, path: "/logout", cookie: cookie})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, http.StatusSeeOther, do(t, h, call{method: http.MethodGet, path: "/", cookie: cookie}).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	token := login(t, h)
	do(t, h, call{method: http.MethodPost, path: "/api/buttons", token: token, body: `{"buttonKey":"m","textAr":"m","textEn":"m"}`})

	rec := do(t, h, call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `bmomtm_http_requests_total{method="POST",path_pattern="/api/buttons",status="201"} 1`)
	require.Contains(t, body, `menu_mutations_total{operation="create"} 1`)
	require.Contains(t, body, "menu_buttons_created_total 1")
}
