package connection

import "time"

// Status is the body of the probe endpoints.
type Status struct {
	Status string `json:"status" yaml:"status"`
	Time   string `json:"time" yaml:"time"`
}

// ServerInfo describes the server's conversation policy.
type ServerInfo struct {
	Version             string `json:"version" yaml:"version"`
	Commit              string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Window              int    `json:"window" yaml:"window"`
	AllowWindowOverride bool   `json:"allow_window_override" yaml:"allow_window_override"`
	SessionTTLSeconds   int64  `json:"session_ttl_seconds" yaml:"session_ttl_seconds"`
	Cipher              string `json:"cipher,omitempty" yaml:"cipher,omitempty"`
}

// HandshakeRequest carries the initiator's public keys.
type HandshakeRequest struct {
	EncPublicKey []byte `json:"enc_public_key"`
	DecPublicKey []byte `json:"dec_public_key"`
	Window       *int   `json:"window,omitempty"`
}

// HandshakeResponse carries the responder's public keys.
type HandshakeResponse struct {
	ConversationID string    `json:"conversation_id"`
	EncPublicKey   []byte    `json:"enc_public_key"`
	DecPublicKey   []byte    `json:"dec_public_key"`
	Window         int       `json:"window"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Frame is one encoded message.
type Frame struct {
	Seq     uint64 `json:"seq"`
	Payload []byte `json:"payload"`
}
