package handlerutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

func TestRespondError(t *testing.T) {
	outOfStock := servererrors.New(servererrors.KindInsufficientStock, "insufficient stock")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   servererrors.Kind
		wantError  string
	}{
		{
			name:       "validation with fields",
			err:        servererrors.Validation("invalid request", map[string]string{"quantity": "must be greater than 0"}),
			wantStatus: http.StatusBadRequest,
			wantKind:   servererrors.KindValidation,
			wantError:  "invalid request",
		},
		{
			name:       "wrapped domain error keeps its kind",
			err:        fmt.Errorf("%w: requested 3, available 2", outOfStock),
			wantStatus: http.StatusConflict,
			wantKind:   servererrors.KindInsufficientStock,
			wantError:  "insufficient stock: requested 3, available 2",
		},
		{
			name:       "unclassified error passes its message through",
			err:        errors.New("permission denied for table products"),
			wantStatus: http.StatusInternalServerError,
			wantKind:   servererrors.KindRemote,
			wantError:  "permission denied for table products",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorBody
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.Equal(t, tt.wantError, body.Error)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Quantity int `json:"quantity"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity": 4}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, 4, dst.Quantity)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity": `))
	err := DecodeJSON(r, &dst)
	assert.Equal(t, servererrors.KindValidation, servererrors.KindOf(err))
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		Respond(w, http.StatusCreated, map[string]string{"ok": "yes"})
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pos/checkout", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"ok":"yes"}`, rec.Body.String())
}
