package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/SAMZalaf/bmomtm/internal/application"
	"github.com/SAMZalaf/bmomtm/internal/domain"
	"go.uber.org/zap"
)

// Error codes beyond the JSON-RPC reserved range mirror HTTP statuses.
const (
	codeParse          = -32700
	codeInvalidRequest = -32600
	codeNoMethod       = -32601
	codeInvalidParams  = -32602
	codeValidation     = 40000
	codeUnauthorized   = 40100
	codeNotFound       = 40400
	codeConflict       = 40900
	codeIntegrity      = 42200
	codeInternal       = 50000
)

type Server struct {
	menu     *application.MenuService
	auth     *application.AuthService
	log      *zap.Logger
	methods  map[string]method
	listener net.Listener
	path     string
}

// method runs one call. params is never empty when it is invoked.
type method func(ctx context.Context, params json.RawMessage) (any, error)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    []domain.FieldError `json:"data,omitempty"`
}

// Start listens on a unix socket readable only by the owner.
func Start(path string, menu *application.MenuService, auth *application.AuthService, log *zap.Logger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{menu: menu, auth: auth, log: log, listener: ln, path: path}
	s.methods = s.routes()
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(failure(nil, codeParse, "parse error"))
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return failure(req.ID, codeInvalidRequest, "invalid request")
	}
	m, ok := s.methods[req.Method]
	if !ok {
		return failure(req.ID, codeNoMethod, "method not found")
	}
	if len(req.Params) == 0 {
		return failure(req.ID, codeInvalidParams, "invalid params")
	}
	if req.Method != "auth.login" {
		if resp, ok := s.authorize(ctx, req); !ok {
			return resp
		}
	}

	result, err := m(ctx, req.Params)
	if err != nil {
		return s.errorResponse(req, err)
	}
	return response{JSONRPC: "2.0", Result: result, ID: req.ID}
}

func (s *Server) authorize(ctx context.Context, req request) (response, bool) {
	var p struct {
		Token string `json:"token"`
	}
	if json.Unmarshal(req.Params, &p) != nil {
		return failure(req.ID, codeInvalidParams, "invalid params"), false
	}
	if err := s.auth.Authenticate(ctx, p.Token); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return failure(req.ID, codeUnauthorized, "unauthorized"), false
		}
		return s.errorResponse(req, err), false
	}
	return response{}, true
}

type paramsError struct{ err error }

func (e paramsError) Error() string { return "invalid params: " + e.err.Error() }

func decodeParams(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return paramsError{err: err}
	}
	return nil
}

func (s *Server) errorResponse(req request, err error) response {
	var perr paramsError
	if errors.As(err, &perr) {
		return failure(req.ID, codeInvalidParams, perr.Error())
	}
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := failure(req.ID, codeValidation, verr.Error())
		resp.Error.Data = verr.Fields
		return resp
	case errors.Is(err, domain.ErrUnauthorized):
		return failure(req.ID, codeUnauthorized, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return failure(req.ID, codeNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return failure(req.ID, codeConflict, err.Error())
	case errors.Is(err, domain.ErrIntegrity):
		return failure(req.ID, codeIntegrity, err.Error())
	}
	s.log.Error("rpc call failed", zap.String("method", req.Method), zap.Error(err))
	return failure(req.ID, codeInternal, "internal error")
}

func failure(id any, code int, message string) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: message}, ID: id}
}
