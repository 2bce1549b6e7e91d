package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"entity not found", EntityNotFoundError("Daewoo"), http.StatusNotFound, CodeEntityNotFound},
		{"no history", NoHistoryError("Hanwha"), http.StatusUnprocessableEntity, CodeNoHistory},
		{"validation", ErrValidation("align", "bad"), http.StatusBadRequest, CodeValidationFailed},
		{"invalid request", InvalidRequestWithError(errors.New("bad json")), http.StatusBadRequest, CodeInvalidRequest},
		{"not found", NotFoundError("view"), http.StatusNotFound, CodeNotFound},
		{"export failed", ExportFailedError(errors.New("disk full")), http.StatusInternalServerError, CodeExportFailed},
		{"panic", ErrPanic("boom"), http.StatusInternalServerError, CodeInternalServer},
		{"simple validation", NewValidationError("nope"), http.StatusBadRequest, CodeValidationFailed},
		{"simple internal", NewInternalError("nope"), http.StatusInternalServerError, CodeInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.err.Message, tt.err.Error())

			var target *APIError
			assert.True(t, errors.As(fmt.Errorf("wrapped: %w", tt.err), &target))
		})
	}
}

func TestEntityErrorsCarryEntity(t *testing.T) {
	err := EntityNotFoundError("Daewoo")
	assert.Contains(t, err.Message, `"Daewoo"`)
	assert.Equal(t, map[string]string{"entity": "Daewoo"}, err.Details)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, EntityNotFoundError("Daewoo"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, CodeEntityNotFound, body.Error.ErrorCode)
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "view", Message: "unknown"},
		{Field: "format", Message: "unsupported"},
	})

	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
}

func TestProblemDetailsJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeEntityNotFound, "Not Found", "missing", "/api/x").
		WithExtension("trace_id", "abc").
		WithExtension("type", "ignored")

	data, err := json.Marshal(problem)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "/errors/data/entity-not-found",
		"title": "Not Found",
		"status": 404,
		"detail": "missing",
		"instance": "/api/x",
		"trace_id": "abc"
	}`, string(data))

	bare, err := json.Marshal(&ProblemDetails{Type: TypeInternal, Title: "x", Status: 500})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"/errors/internal","title":"x","status":500}`, string(bare))
}
