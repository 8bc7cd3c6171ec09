package service

// Rejection reasons reported to an Observer.
const (
	ReasonTooOld    = "too_old"
	ReasonTooNew    = "too_new"
	ReasonDuplicate = "duplicate"
	ReasonTransform = "transform_error"
)

// Handshake roles reported to an Observer.
const (
	RoleResponder = "responder"
	RoleInitiator = "initiator"
)

// Observer receives coordinator events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	HandshakeCompleted(role string)
	FrameSent()
	FrameAccepted()
	FrameRejected(reason string)
	SessionMiss(op string)
	SessionClosed()
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) HandshakeCompleted(string) {}
func (NopObserver) FrameSent()                {}
func (NopObserver) FrameAccepted()            {}
func (NopObserver) FrameRejected(string)      {}
func (NopObserver) SessionMiss(string)        {}
func (NopObserver) SessionClosed()            {}
