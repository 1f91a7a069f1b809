package main

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/stockpdv/internal/config"
	"github.com/georgemunganga/stockpdv/internal/modules/pos"
)

func TestRouterGating(t *testing.T) {
	// sql.Open does not dial; none of the requests below reach the database.
	db, err := sql.Open("postgres", "postgres://stockpdv@127.0.0.1:1/stockpdv?sslmode=disable")
	require.NoError(t, err)
	defer db.Close()

	cfg := &config.Config{JWTSecret: "router-test", JWTTTL: time.Hour, NearExpiryDays: 30, HistoryLimit: 1000}
	router := newRouter(cfg, db, pos.NewSessionStore())

	tests := []struct {
		method string
		path   string
		body   string
		auth   string
		want   int
	}{
		{http.MethodGet, "/api/v1/reports/dashboard", "", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/pos/cart", "", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/products", `{}`, "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/users", "", "Bearer not-a-jwt", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/users/register", `{"email":`, "", http.StatusBadRequest},
		{http.MethodPost, "/api/v1/auth/login", `{}`, "", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/nowhere", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
