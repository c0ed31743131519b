package rest

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("encoding response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		h.writeJSON(w, appErr.StatusCode, errorBody{Error: errorDetail{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}})
		return
	}

	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		details := make(map[string]interface{}, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Namespace()] = fe.Tag()
		}
		h.writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Details: details,
		}})
		return
	}

	h.logger.Error("unhandled error", zap.Error(err))
	h.writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}})
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, message string) {
	h.writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
		Code:    "INVALID_REQUEST",
		Message: message,
	}})
}
