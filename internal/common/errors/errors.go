// Package errors provides standardized error handling for the API boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Script/service proxy path
	ErrCodeInvalidScript        ErrorCode = "INVALID_SCRIPT"
	ErrCodeExecutionFailed      ErrorCode = "EXECUTION_FAILED"
	ErrCodeScriptTimeout        ErrorCode = "SCRIPT_TIMEOUT"
	ErrCodeNoOutput             ErrorCode = "NO_OUTPUT"
	ErrCodePayloadNotParseable  ErrorCode = "PAYLOAD_NOT_PARSEABLE"
	ErrCodeAdmissionCancelled   ErrorCode = "ADMISSION_CANCELLED"

	// Structural request errors
	ErrCodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	ErrCodeArtifactNotFound ErrorCode = "ARTIFACT_NOT_FOUND"

	// Upstream integrations (chat path swallows these; they exist for logs)
	ErrCodeLLMTimeout        ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMRequestFailed  ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeRecommenderFailed ErrorCode = "RECOMMENDER_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets errors.Is match on the code of another StandardError.
func (e *StandardError) Is(target error) bool {
	var std *StandardError
	if errors.As(target, &std) {
		return e.Code == std.Code
	}
	return false
}

// ==========================
// 2. Constructors
// ==========================

// NewInvalidScriptError rejects a program identifier outside the allow-set.
func NewInvalidScriptError(script string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidScript,
		Message:   "Script inválido",
		Details:   fmt.Sprintf("script: %q", script),
		Timestamp: time.Now().UTC(),
	}
}

// NewExecutionFailedError wraps a non-zero exit; message carries the
// captured stderr, or a generic sentence when stderr was empty.
func NewExecutionFailedError(stderr string) *StandardError {
	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = "Error ejecutando el script"
	}
	return &StandardError{
		Code:      ErrCodeExecutionFailed,
		Message:   msg,
		Timestamp: time.Now().UTC(),
	}
}

// NewScriptTimeoutError reports a run terminated at its deadline,
// distinct from a non-zero exit.
func NewScriptTimeoutError(script string) *StandardError {
	return &StandardError{
		Code:      ErrCodeScriptTimeout,
		Message:   "El script excedió el tiempo máximo de ejecución",
		Details:   fmt.Sprintf("script: %s", script),
		Timestamp: time.Now().UTC(),
	}
}

// NewNoOutputError reports a run that produced no usable output artifact.
func NewNoOutputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoOutput,
		Message:   "No se generó el archivo de salida",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadNotParseableError reports stdout with no extractable JSON payload.
func NewPayloadNotParseableError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadNotParseable,
		Message:   "No se pudo obtener una respuesta del modelo",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdmissionCancelledError reports a request abandoned while waiting
// for a script-runner slot.
func NewAdmissionCancelledError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdmissionCancelled,
		Message:   "Error interno en la API",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// NewArtifactNotFoundError reports a flat-file artifact that does not
// exist yet. The message is filled per artifact at the call site.
func NewArtifactNotFoundError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeArtifactNotFound,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingParameterError rejects a request that omits required query params.
func NewMissingParameterError(params string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingParameter,
		Message:   "Faltan parámetros requeridos",
		Details:   params,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecommenderFailedError wraps an upstream recommendation source failure.
func NewRecommenderFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecommenderFailed,
		Message:   "Error interno en la API",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps any unexpected error crossing the boundary.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Error interno en la API",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP mapping
// ==========================

// HTTPStatus maps an error code to the status the boundary responds with.
// Client mistakes are 400, absent artifacts 404, everything else 500.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidScript, ErrCodeMissingParameter:
		return http.StatusBadRequest
	case ErrCodeArtifactNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Normalize ensures any error crossing the boundary is a StandardError.
func Normalize(err error) *StandardError {
	var std *StandardError
	if errors.As(err, &std) {
		return std
	}
	return NewInternalError(err)
}
