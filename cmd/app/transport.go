package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/domain"
)

var httpClient = &http.Client{Timeout: 20 * time.Second}

// remoteError is a failure reported by the server over either transport.
type remoteError struct {
	Via     string
	Code    string
	Message string
	Fields  []domain.FieldError
}

func (e *remoteError) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		msg = strings.Join(parts, "; ")
	}
	return fmt.Sprintf("%s error (%s): %s", e.Via, e.Code, msg)
}

// overHTTP sends o to the JSON API with the token as a bearer credential.
func (o op) overHTTP(ctx context.Context, server, token string, out any) error {
	var body io.Reader
	if o.body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(o.body); err != nil {
			return err
		}
		body = buf
	}
	req, err := http.NewRequestWithContext(ctx, o.httpMethod, strings.TrimRight(server, "/")+o.path, body)
	if err != nil {
		return err
	}
	if o.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(resp.Body)
		var envelope struct {
			Error   string              `json:"error"`
			Code    string              `json:"code"`
			Details []domain.FieldError `json:"details"`
		}
		rerr := &remoteError{Via: "api", Code: strconv.Itoa(resp.StatusCode), Message: strings.TrimSpace(string(payload))}
		if json.Unmarshal(payload, &envelope) == nil && envelope.Code != "" {
			rerr.Code += " " + envelope.Code
			rerr.Message = envelope.Error
			rerr.Fields = envelope.Details
		}
		return rerr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// overSocket sends o as one JSON-RPC request on a fresh unix socket
// connection. params already carry the token.
func (o op) overSocket(ctx context.Context, socket string, params map[string]any, out any) error {
	dialer := net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "unix", socket)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req := map[string]any{"jsonrpc": "2.0", "method": o.method, "params": params, "id": 1}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return err
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int                 `json:"code"`
			Message string              `json:"message"`
			Data    []domain.FieldError `json:"data"`
		} `json:"error"`
	}
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return &remoteError{Via: "rpc", Code: strconv.Itoa(resp.Error.Code), Message: resp.Error.Message, Fields: resp.Error.Data}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}
