// Package commons holds the response and validation helpers shared by the
// HTTP controllers.
package commons

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"almoxarife/internal/dto"
	apperrors "almoxarife/internal/errors"
)

const maxBodyBytes = 1 << 20

func NewTraceID() string {
	return uuid.New().String()
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func WriteError(w http.ResponseWriter, traceID string, statusCode int, code string, message string, details []apperrors.ValidationDetail, logger *zap.Logger) {
	response := dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Message:   message,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
	WriteJSON(w, statusCode, response, logger)
}

func WriteValidationError(w http.ResponseWriter, traceID string, message string, logger *zap.Logger, details ...apperrors.ValidationDetail) {
	WriteError(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", message, details, logger)
}

// HandleError maps typed application errors to HTTP responses.
func HandleError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		WriteValidationError(w, traceID, ve.Message, logger, ve.Details...)
		return
	}

	if nfe, ok := apperrors.IsNotFoundError(err); ok {
		WriteError(w, traceID, http.StatusNotFound, "NOT_FOUND", nfe.Error(), nil, logger)
		return
	}

	if ce, ok := apperrors.IsConflictError(err); ok {
		code := ce.Code
		if code == "" {
			code = "CONFLICT"
		}
		WriteError(w, traceID, http.StatusConflict, code, ce.Error(), nil, logger)
		return
	}

	if _, ok := apperrors.IsDeadlockError(err); ok {
		WriteError(w, traceID, http.StatusConflict, "DEADLOCK", err.Error(), nil, logger)
		return
	}

	if ie, ok := apperrors.IsInternalError(err); ok {
		logger.Error("internal error",
			zap.String("traceId", traceID),
			zap.String("operation", ie.Message),
			zap.Error(ie.Cause),
		)
		WriteError(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred", nil, logger)
		return
	}

	logger.Error("unexpected error", zap.String("traceId", traceID), zap.Error(err))
	WriteError(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil, logger)
}

// DecodeJSON decodes a size-limited request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst interface{}) *apperrors.ValidationError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		msg := "request body must be valid JSON"
		if errors.Is(err, io.EOF) {
			msg = "request body must not be empty"
		}
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: msg,
		})
	}
	return nil
}
