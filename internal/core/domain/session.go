package domain

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/seqlink-go/internal/core/seqguard"
)

// Conversation constraints.
const (
	MaxConversationIDLength = 128

	// ConversationIDPrefix is the prefix of generated conversation IDs.
	ConversationIDPrefix = "conv-"

	// MaxWindow bounds |W| so the duplicate bitmap and the retained key set
	// stay small.
	MaxWindow = 4096
)

// Direction names one half of a conversation.
type Direction string

const (
	DirectionSend    Direction = "tx"
	DirectionReceive Direction = "rx"
)

// StorageKey returns the store key holding the given half of a conversation.
func StorageKey(conversationID string, dir Direction) string {
	return "conv/" + conversationID + "/" + string(dir)
}

// SendRecord is the persisted outbound half of a conversation. Only Send
// mutates it. Label names the key derivation direction and is bound into
// every frame's associated data.
type SendRecord struct {
	ConversationID string    `json:"id"`
	Label          string    `json:"label"`
	CreatedAt      time.Time `json:"created_at"`
	LastUsedAt     time.Time `json:"last_used_at"`
	State          []byte    `json:"state"`
}

// ReceiveRecord is the persisted inbound half of a conversation: the decode
// state and the sequence guard in front of it. Only Receive mutates it.
type ReceiveRecord struct {
	ConversationID string         `json:"id"`
	Label          string         `json:"label"`
	CreatedAt      time.Time      `json:"created_at"`
	LastUsedAt     time.Time      `json:"last_used_at"`
	State          []byte         `json:"state"`
	Guard          seqguard.Guard `json:"guard"`
}

// Marshal encodes the record for storage.
func (r *SendRecord) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Marshal encodes the record for storage.
func (r *ReceiveRecord) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalSendRecord decodes a stored send record.
func UnmarshalSendRecord(b []byte) (*SendRecord, error) {
	var r SendRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, ErrSessionCorrupted.WithCause(err)
	}
	if len(r.State) == 0 {
		return nil, ErrSessionCorrupted.WithDetails("send record has no state")
	}
	return &r, nil
}

// UnmarshalReceiveRecord decodes a stored receive record.
func UnmarshalReceiveRecord(b []byte) (*ReceiveRecord, error) {
	var r ReceiveRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, ErrSessionCorrupted.WithCause(err)
	}
	if len(r.State) == 0 {
		return nil, ErrSessionCorrupted.WithDetails("receive record has no state")
	}
	return &r, nil
}

// SessionInfo is the diagnostic view of a conversation. It never carries
// key material.
type SessionInfo struct {
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastSendAt     time.Time `json:"last_send_at"`
	LastReceiveAt  time.Time `json:"last_receive_at"`
	Window         int       `json:"window"`
	Mode           string    `json:"mode"`
	NextSendSeq    uint64    `json:"next_send_seq"`
	ExpectedSeq    uint64    `json:"expected_seq"`
	HighestSeq     int64     `json:"highest_seq"`
}

// GenerateConversationID generates a new conversation ID using ULID.
// Format: conv-{ulid_lowercase}.
func GenerateConversationID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return ConversationIDPrefix + strings.ToLower(id.String()), nil
}

// ValidateConversationID checks a caller supplied conversation ID. IDs are
// opaque but must be safe to embed in store keys and URL paths.
func ValidateConversationID(id string) error {
	if id == "" {
		return ErrMissingArgument.WithDetails("conversation id is required")
	}
	if len(id) > MaxConversationIDLength {
		return ErrInvalidArgument.WithDetails(fmt.Sprintf("conversation id exceeds %d characters", MaxConversationIDLength))
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return ErrInvalidArgument.WithDetails(fmt.Sprintf("conversation id contains %q", c))
		}
	}
	return nil
}

// ValidateWindow checks a window policy.
func ValidateWindow(window int) error {
	if window > MaxWindow || window < -MaxWindow {
		return ErrInvalidArgument.WithDetails(fmt.Sprintf("window must be within [-%d, %d]", MaxWindow, MaxWindow))
	}
	return nil
}

// AssociatedData returns the bytes every frame of one direction of a
// conversation is authenticated against.
func AssociatedData(conversationID, label string) []byte {
	return []byte(label + "\x00" + conversationID)
}
