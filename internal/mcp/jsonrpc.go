package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
)

// maxLineSize bounds one framed message.
const maxLineSize = 4 << 20

type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// methodFunc answers one request. A non-nil error is sent in place of the
// result.
type methodFunc func(ctx context.Context, method string, params json.RawMessage) (any, *jsonrpcError)

// serveLines reads newline-delimited JSON-RPC requests from r and writes one
// response line per request to w. Notifications get no response. It returns
// nil on EOF or when ctx ends.
func serveLines(ctx context.Context, r io.Reader, w io.Writer, call methodFunc) error {
	lines, errc := readLines(ctx, r)
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			resp, reply := answer(ctx, line, call)
			if !reply {
				continue
			}
			// Encode appends the newline that frames the message.
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if err := bw.Flush(); err != nil {
				return err
			}
		}
	}
}

// answer decodes line and runs it through call. reply is false for
// notifications.
func answer(ctx context.Context, line []byte, call methodFunc) (resp jsonrpcResponse, reply bool) {
	resp.JSONRPC = "2.0"

	var req jsonrpcRequest
	if err := json.Unmarshal(line, &req); err != nil {
		resp.Error = &jsonrpcError{Code: codeParseError, Message: "Parse error"}
		return resp, true
	}
	if req.ID == nil {
		return resp, false
	}

	resp.ID = req.ID
	resp.Result, resp.Error = call(ctx, req.Method, req.Params)
	return resp, true
}

// readLines scans r on its own goroutine so the caller can stop on ctx.
// lines closes on EOF; a read failure arrives on the error channel.
func readLines(ctx context.Context, r io.Reader) (<-chan []byte, <-chan error) {
	lines := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			if len(line) == 0 {
				continue
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- err
			return
		}
		close(lines)
	}()

	return lines, errc
}
