package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRespondWithError_StructuredBody(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithError(w, http.StatusBadRequest, "something went wrong")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Bad Request", resp.Error.Code)
	assert.Equal(t, "something went wrong", resp.Error.Message)
	assert.NotEmpty(t, resp.Error.Timestamp)
}

func TestErrorHandlingMiddleware_RecoversPanicsWithoutLeaking(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("open /data/orders.json: permission denied")
		}),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/orders", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "orders.json")
}

func TestDecodeAndValidate(t *testing.T) {
	type payload struct {
		Email string `json:"email" validate:"required,email"`
		Plan  string `json:"plan" validate:"required,oneof=mensual anual"`
	}

	t.Run("valid body passes", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"ana@example.com","plan":"mensual"}`))
		var p payload
		assert.NoError(t, DecodeAndValidate(req, &p))
	})

	t.Run("malformed JSON fails before validation", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))
		var p payload
		err := DecodeAndValidate(req, &p)
		require.Error(t, err)
		assert.Empty(t, FormatValidationErrors(err))
	})

	t.Run("field errors are formatted per field", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"not-an-email","plan":"semanal"}`))
		var p payload
		err := DecodeAndValidate(req, &p)
		require.Error(t, err)

		formatted := FormatValidationErrors(err)
		require.Len(t, formatted, 2)
		assert.Equal(t, "Email", formatted[0].Field)
		assert.Equal(t, "Invalid email format", formatted[0].Message)
		assert.Contains(t, formatted[1].Message, "mensual")
	})
}
