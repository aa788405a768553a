package rpcjson

import (
	"context"
	"encoding/json"

	"github.com/SAMZalaf/bmomtm/internal/application"
	"github.com/SAMZalaf/bmomtm/internal/domain"
)

func (s *Server) routes() map[string]method {
	return map[string]method{
		"auth.login":    s.authLogin,
		"auth.logout":   s.authLogout,
		"auth.password": s.authPassword,

		"buttons.tree":    func(ctx context.Context, _ json.RawMessage) (any, error) { return s.menu.Tree(ctx) },
		"buttons.export":  func(ctx context.Context, _ json.RawMessage) (any, error) { return s.menu.Export(ctx) },
		"buttons.list":    s.buttonsList,
		"buttons.get":     s.buttonsGet,
		"buttons.pages":   s.buttonsPages,
		"buttons.create":  s.buttonsCreate,
		"buttons.update":  s.buttonsUpdate,
		"buttons.delete":  s.buttonsDelete,
		"buttons.batch":   s.buttonsBatch,
		"buttons.copy":    s.buttonsCopy,
		"buttons.reorder": s.buttonsReorder,
		"buttons.import":  s.buttonsImport,
		"buttons.reset":   s.buttonsReset,

		"bot.status":  func(ctx context.Context, _ json.RawMessage) (any, error) { return s.menu.BotStatus(ctx) },
		"bot.set":     s.botSet,
		"bot.restart": s.botRestart,

		"settings.get": func(ctx context.Context, _ json.RawMessage) (any, error) { return s.menu.Settings(ctx) },
		"settings.set": s.settingsSet,
		"orders.list":  s.ordersList,
		"orders.get":   s.ordersGet,
		"logs.list":    s.logsList,
	}
}

func (s *Server) authLogin(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Password string `json:"password"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	token, err := s.auth.Login(ctx, p.Password)
	if err != nil {
		return nil, err
	}
	return map[string]any{"token": token}, nil
}

func (s *Server) authLogout(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Token string `json:"token"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := s.auth.Logout(ctx, p.Token); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

// authPassword revokes every session, the caller's included, and returns a
// fresh token.
func (s *Server) authPassword(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	token, err := s.auth.ChangePassword(ctx, p.CurrentPassword, p.NewPassword)
	if err != nil {
		return nil, err
	}
	return map[string]any{"token": token}, nil
}

type idParams struct {
	ID uint `json:"id"`
}

func (s *Server) buttonsList(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		ParentID domain.NullableID `json:"parentId"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if !p.ParentID.Set {
		return s.menu.List(ctx)
	}
	return s.menu.Children(ctx, p.ParentID.Value)
}

func (s *Server) buttonsGet(ctx context.Context, params json.RawMessage) (any, error) {
	var p idParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.menu.Get(ctx, p.ID)
}

func (s *Server) buttonsPages(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		ParentID    *uint `json:"parentId"`
		VisibleOnly bool  `json:"visibleOnly"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.menu.Pages(ctx, p.ParentID, p.VisibleOnly)
}

func (s *Server) buttonsCreate(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Button domain.ButtonDraft `json:"button"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.menu.Create(ctx, p.Button)
}

func (s *Server) buttonsUpdate(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		ID    uint               `json:"id"`
		Patch domain.ButtonPatch `json:"patch"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.menu.Update(ctx, p.ID, p.Patch)
}

func (s *Server) buttonsDelete(ctx context.Context, params json.RawMessage) (any, error) {
	var p idParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	deleted, err := s.menu.Delete(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"deleted": deleted}, nil
}

func (s *Server) buttonsBatch(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Buttons []domain.ButtonDraft `json:"buttons"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	created, err := s.menu.BatchCreate(ctx, p.Buttons)
	if err != nil {
		return nil, err
	}
	return map[string]any{"buttons": created, "count": len(created)}, nil
}

func (s *Server) buttonsCopy(ctx context.Context, params json.RawMessage) (any, error) {
	var req application.CopyRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	return s.menu.Copy(ctx, req)
}

func (s *Server) buttonsReorder(ctx context.Context, params json.RawMessage) (any, error) {
	var req application.ReorderRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := s.menu.Reorder(ctx, req); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

// buttonsImport takes the exported document under "document", either the bare
// array or the {"buttons": [...]} envelope.
func (s *Server) buttonsImport(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Document json.RawMessage `json:"document"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	n, err := s.menu.Import(ctx, p.Document)
	if err != nil {
		return nil, err
	}
	return map[string]any{"imported": n}, nil
}

func (s *Server) buttonsReset(ctx context.Context, _ json.RawMessage) (any, error) {
	if err := s.menu.Reset(ctx); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true}, nil
}

func (s *Server) botSet(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		IsRunning *bool `json:"isRunning"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.IsRunning == nil {
		return nil, domain.Invalid("isRunning", "is required")
	}
	return s.menu.SetBotRunning(ctx, *p.IsRunning)
}

func (s *Server) botRestart(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Seconds int `json:"seconds"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.menu.RestartBot(ctx, p.Seconds)
}

func (s *Server) settingsSet(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Values map[string]string `json:"values"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.menu.UpdateSettings(ctx, p.Values)
}

func (s *Server) ordersList(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.menu.ListOrders(ctx, p.Limit, p.Offset)
}

func (s *Server) ordersGet(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		OrderID string `json:"orderId"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.menu.GetOrder(ctx, p.OrderID)
}

func (s *Server) logsList(ctx context.Context, params json.RawMessage) (any, error) {
	var p struct {
		Limit int `json:"limit"`
	}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return s.menu.ListActivity(ctx, p.Limit)
}
