package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// HandshakeRequest is the request body for POST /v1/conversations/{id}/handshake.
// Keys are SPKI DER, base64 encoded on the wire.
type HandshakeRequest struct {
	EncPublicKey []byte `json:"enc_public_key"`
	DecPublicKey []byte `json:"dec_public_key"`
	Window       *int   `json:"window,omitempty"`
}

// HandshakeResponse is the response body for POST /v1/conversations/{id}/handshake.
type HandshakeResponse struct {
	ConversationID string    `json:"conversation_id"`
	EncPublicKey   []byte    `json:"enc_public_key"`
	DecPublicKey   []byte    `json:"dec_public_key"`
	Window         int       `json:"window"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// FrameMessage carries one encoded frame in either direction.
type FrameMessage struct {
	Seq     uint64 `json:"seq"`
	Payload []byte `json:"payload"`
}

// InfoResponse is the response body for GET /v1/info.
type InfoResponse struct {
	Version             string `json:"version"`
	Commit              string `json:"commit,omitempty"`
	Window              int    `json:"window"`
	AllowWindowOverride bool   `json:"allow_window_override"`
	SessionTTLSeconds   int64  `json:"session_ttl_seconds"`
	Cipher              string `json:"cipher,omitempty"`
}

// CloseResponse is the response body for POST /v1/conversations/{id}/close.
type CloseResponse struct {
	Closed bool `json:"closed"`
}
