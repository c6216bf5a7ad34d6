package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gwi.com/botgpt/internal/core"
)

type errorResponse struct {
	Error              string   `json:"error"`
	MissingDocumentIDs []string `json:"missing_document_ids,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func statusForKind(kind core.ErrorKind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error onto a status code and an error body.
// Server-side failures are logged with their cause.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := statusForKind(core.KindOf(err))
	resp := errorResponse{Error: err.Error()}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		if coreErr.Kind == core.KindInternal {
			resp.Error = coreErr.Message
		}
		if missing, ok := coreErr.Details["missing_document_ids"].([]string); ok {
			resp.MissingDocumentIDs = missing
		}
	} else {
		resp.Error = "internal server error"
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("kind", core.KindOf(err).String()).Msg("request failed")
	}
	writeJSON(w, status, resp)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// validationMessage renders validator errors as "field is required" style
// messages using JSON field names.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
