package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps err to a status and a {"detail": ...} body. Unexpected
// errors are logged with op; their text is not sent to the client.
func writeError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	var (
		ve *core.ValidationError
		nf *core.NotFoundError
		re *core.RenderError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: ve.Error()})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Transaction not found"})
	case errors.As(err, &re):
		log.LogError(ctx, "Report rendering failed", err, op, nil)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Failed to generate PDF report"})
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to send.
		log.FromContext(ctx).DebugContext(ctx, "Request cancelled", log.FieldOperation, op)
	default:
		log.LogError(ctx, "Request failed", err, op, nil)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Internal server error"})
	}
}

// decodeJSON reads a single JSON object from the request body. Any problem
// with the payload is reported as a ValidationError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.NewValidationError("body", fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		}
		if errors.Is(err, io.EOF) {
			return core.NewValidationError("body", errors.New("request body is empty"))
		}
		return core.NewValidationError("body", fmt.Errorf("malformed JSON: %w", err))
	}
	if dec.More() {
		return core.NewValidationError("body", errors.New("request body must contain a single JSON object"))
	}
	return nil
}
