package handler

import "context"

// MessageHandler consumes a decoded inbound message and optionally
// returns a reply. A nil reply sends nothing back.
type MessageHandler interface {
	HandleMessage(ctx context.Context, conversationID string, msg []byte) ([]byte, error)
}

// MessageHandlerFunc adapts a function to MessageHandler.
type MessageHandlerFunc func(ctx context.Context, conversationID string, msg []byte) ([]byte, error)

// HandleMessage implements MessageHandler.
func (f MessageHandlerFunc) HandleMessage(ctx context.Context, conversationID string, msg []byte) ([]byte, error) {
	return f(ctx, conversationID, msg)
}

// Echo replies with the message it received.
var Echo MessageHandler = MessageHandlerFunc(func(_ context.Context, _ string, msg []byte) ([]byte, error) {
	return msg, nil
})

// ReadinessFunc reports whether the server can take traffic.
type ReadinessFunc func(ctx context.Context) error
