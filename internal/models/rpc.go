package models

import "encoding/json"

// RPCVersion версия протокола JSON-RPC удаленного API.
const RPCVersion = "2.0"

// RPCRequest представляет вызов метода удаленного API
type RPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// RPCResponse представляет ответ удаленного API
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError ошибка, возвращенная удаленным API.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
