package main

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"
)

// op describes one remote call in both transports. params go to the JSON-RPC
// method with the stored token added; path and body go to the HTTP API.
type op struct {
	method     string
	params     map[string]any
	httpMethod string
	path       string
	body       any
}

func (cfg cliConfig) do(ctx context.Context, o op, out any) error {
	if cfg.Transport == transportUDS {
		params := map[string]any{"token": cfg.Token}
		maps.Copy(params, o.params)
		return o.overSocket(ctx, cfg.Socket, params, out)
	}
	return o.overHTTP(ctx, cfg.Server, cfg.Token, out)
}

func doLogin(ctx context.Context, cfg cliConfig, password string, out any) error {
	in := map[string]any{"password": password}
	return cfg.do(ctx, op{method: "auth.login", params: in, httpMethod: http.MethodPost, path: "/api/auth/login", body: in}, out)
}

func doLogout(ctx context.Context, cfg cliConfig) error {
	return cfg.do(ctx, op{method: "auth.logout", httpMethod: http.MethodPost, path: "/api/auth/logout"}, nil)
}

func doChangePassword(ctx context.Context, cfg cliConfig, current, next string, out any) error {
	in := map[string]any{"currentPassword": current, "newPassword": next}
	return cfg.do(ctx, op{method: "auth.password", params: in, httpMethod: http.MethodPost, path: "/api/auth/password", body: in}, out)
}

func doButtonsTree(ctx context.Context, cfg cliConfig, out any) error {
	return cfg.do(ctx, op{method: "buttons.tree", httpMethod: http.MethodGet, path: "/api/buttons/tree"}, out)
}

// doButtonsList lists every button, or the children of parent when it is set.
// A parent of 0 means the root level.
func doButtonsList(ctx context.Context, cfg cliConfig, parent *uint, out any) error {
	params := map[string]any{}
	path := "/api/buttons"
	if parent != nil {
		if *parent == 0 {
			params["parentId"] = nil
			path += "?parentId=root"
		} else {
			params["parentId"] = *parent
			path += "?parentId=" + uintToString(*parent)
		}
	}
	return cfg.do(ctx, op{method: "buttons.list", params: params, httpMethod: http.MethodGet, path: path}, out)
}

func doButtonsGet(ctx context.Context, cfg cliConfig, id uint, out any) error {
	return cfg.do(ctx, op{
		method: "buttons.get", params: map[string]any{"id": id},
		httpMethod: http.MethodGet, path: "/api/buttons/" + uintToString(id),
	}, out)
}

func doButtonsPages(ctx context.Context, cfg cliConfig, parent *uint, visibleOnly bool, out any) error {
	query := url.Values{}
	params := map[string]any{"visibleOnly": visibleOnly}
	if parent != nil {
		params["parentId"] = *parent
		query.Set("parentId", uintToString(*parent))
	}
	if visibleOnly {
		query.Set("visibleOnly", "true")
	}
	path := "/api/buttons/pages"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return cfg.do(ctx, op{method: "buttons.pages", params: params, httpMethod: http.MethodGet, path: path}, out)
}

func doButtonsCreate(ctx context.Context, cfg cliConfig, draft map[string]any, out any) error {
	return cfg.do(ctx, op{
		method: "buttons.create", params: map[string]any{"button": draft},
		httpMethod: http.MethodPost, path: "/api/buttons", body: draft,
	}, out)
}

func doButtonsUpdate(ctx context.Context, cfg cliConfig, id uint, patch map[string]any, out any) error {
	return cfg.do(ctx, op{
		method: "buttons.update", params: map[string]any{"id": id, "patch": patch},
		httpMethod: http.MethodPatch, path: "/api/buttons/" + uintToString(id), body: patch,
	}, out)
}

func doButtonsDelete(ctx context.Context, cfg cliConfig, id uint, out any) error {
	return cfg.do(ctx, op{
		method: "buttons.delete", params: map[string]any{"id": id},
		httpMethod: http.MethodDelete, path: "/api/buttons/" + uintToString(id),
	}, out)
}

func doButtonsBatch(ctx context.Context, cfg cliConfig, drafts json.RawMessage, out any) error {
	return cfg.do(ctx, op{
		method: "buttons.batch", params: map[string]any{"buttons": drafts},
		httpMethod: http.MethodPost, path: "/api/buttons/batch", body: drafts,
	}, out)
}

func doButtonsCopy(ctx context.Context, cfg cliConfig, req map[string]any, out any) error {
	return cfg.do(ctx, op{
		method: "buttons.copy", params: req,
		httpMethod: http.MethodPost, path: "/api/buttons/copy-with-children", body: req,
	}, out)
}

func doButtonsReorder(ctx context.Context, cfg cliConfig, id, target uint, position string) error {
	in := map[string]any{"buttonId": id, "targetId": target, "position": position}
	return cfg.do(ctx, op{method: "buttons.reorder", params: in, httpMethod: http.MethodPost, path: "/api/buttons/reorder", body: in}, nil)
}

func doButtonsExport(ctx context.Context, cfg cliConfig, out *json.RawMessage) error {
	return cfg.do(ctx, op{method: "buttons.export", httpMethod: http.MethodGet, path: "/api/export"}, out)
}

func doButtonsImport(ctx context.Context, cfg cliConfig, document json.RawMessage, out any) error {
	return cfg.do(ctx, op{
		method: "buttons.import", params: map[string]any{"document": document},
		httpMethod: http.MethodPost, path: "/api/buttons/import", body: document,
	}, out)
}

func doButtonsReset(ctx context.Context, cfg cliConfig) error {
	return cfg.do(ctx, op{method: "buttons.reset", httpMethod: http.MethodPost, path: "/api/buttons/reset"}, nil)
}

func doBotStatus(ctx context.Context, cfg cliConfig, out any) error {
	return cfg.do(ctx, op{method: "bot.status", httpMethod: http.MethodGet, path: "/api/bot/status"}, out)
}

func doBotSet(ctx context.Context, cfg cliConfig, running bool, out any) error {
	in := map[string]any{"isRunning": running}
	return cfg.do(ctx, op{method: "bot.set", params: in, httpMethod: http.MethodPost, path: "/api/bot/status", body: in}, out)
}

func doBotRestart(ctx context.Context, cfg cliConfig, seconds int, out any) error {
	in := map[string]any{"seconds": seconds}
	return cfg.do(ctx, op{method: "bot.restart", params: in, httpMethod: http.MethodPost, path: "/api/bot/restart", body: in}, out)
}

func doSettingsGet(ctx context.Context, cfg cliConfig, out any) error {
	return cfg.do(ctx, op{method: "settings.get", httpMethod: http.MethodGet, path: "/api/settings"}, out)
}

func doSettingsSet(ctx context.Context, cfg cliConfig, values map[string]string, out any) error {
	return cfg.do(ctx, op{
		method: "settings.set", params: map[string]any{"values": values},
		httpMethod: http.MethodPost, path: "/api/settings", body: values,
	}, out)
}

func doOrdersList(ctx context.Context, cfg cliConfig, limit, offset int, out any) error {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	return cfg.do(ctx, op{
		method: "orders.list", params: map[string]any{"limit": limit, "offset": offset},
		httpMethod: http.MethodGet, path: "/api/orders?" + query.Encode(),
	}, out)
}

func doOrdersGet(ctx context.Context, cfg cliConfig, orderID string, out any) error {
	return cfg.do(ctx, op{
		method: "orders.get", params: map[string]any{"orderId": orderID},
		httpMethod: http.MethodGet, path: "/api/orders/" + url.PathEscape(orderID),
	}, out)
}

func doLogsList(ctx context.Context, cfg cliConfig, limit int, out any) error {
	return cfg.do(ctx, op{
		method: "logs.list", params: map[string]any{"limit": limit},
		httpMethod: http.MethodGet, path: fmt.Sprintf("/api/logs?limit=%d", limit),
	}, out)
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
