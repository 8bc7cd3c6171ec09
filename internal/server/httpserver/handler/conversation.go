package handler

import (
	"net/http"

	"github.com/yndnr/seqlink-go/internal/core/domain"
	"github.com/yndnr/seqlink-go/internal/core/service"
	"github.com/yndnr/seqlink-go/internal/telemetry/logger"
)

// handleHandshake handles POST /v1/conversations/{id}/handshake.
func (h *Handler) handleHandshake(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req HandshakeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if len(req.EncPublicKey) == 0 || len(req.DecPublicKey) == 0 {
		h.handleServiceError(w, r, domain.ErrMissingArgument.WithDetails("enc_public_key and dec_public_key are required"))
		return
	}

	var opts []service.HandshakeOption
	if req.Window != nil {
		opts = append(opts, service.WithWindow(*req.Window))
	}

	ctx := logger.WithConversationID(r.Context(), id)
	res, err := h.coord.Handshake(ctx, id, req.EncPublicKey, req.DecPublicKey, opts...)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, HandshakeResponse{
		ConversationID: res.ConversationID,
		EncPublicKey:   res.EncPublicKey,
		DecPublicKey:   res.DecPublicKey,
		Window:         res.Window,
		ExpiresAt:      res.ExpiresAt,
	})
}

// handleExchange handles POST /v1/conversations/{id}/exchange. The inbound
// frame is decoded and passed to the message handler; its reply, if any,
// is encoded and returned. Without a reply the response is 202.
func (h *Handler) handleExchange(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req FrameMessage
	if err := h.decode(w, r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	ctx := logger.WithConversationID(r.Context(), id)
	msg, err := h.coord.Receive(ctx, id, req.Seq, req.Payload)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	reply, err := h.messages.HandleMessage(ctx, id, msg)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if reply == nil {
		h.writeJSON(w, r, http.StatusAccepted, nil)
		return
	}

	frame, err := h.coord.Send(ctx, id, reply)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, FrameMessage{Seq: frame.Seq, Payload: frame.Payload})
}

// handleDescribe handles GET /v1/conversations/{id}.
func (h *Handler) handleDescribe(w http.ResponseWriter, r *http.Request) {
	info, err := h.coord.Describe(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, info)
}

// handleClose handles POST /v1/conversations/{id}/close.
func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.coord.Close(logger.WithConversationID(r.Context(), id), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, CloseResponse{Closed: true})
}
