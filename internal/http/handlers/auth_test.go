package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/hongminglow/loyalty-ledger/internal/auth"
	"github.com/hongminglow/loyalty-ledger/internal/http/handlers"
	"github.com/hongminglow/loyalty-ledger/internal/models"
)

type stubStaff struct{}

func (stubStaff) Authenticate(username, password string) (models.StaffUser, error) {
	switch {
	case username == "till1" && password == "pw":
		return models.StaffUser{Username: "till1", Role: models.RoleCashier}, nil
	case username == "broken":
		return models.StaffUser{}, errors.New("directory offline")
	default:
		return models.StaffUser{}, auth.ErrInvalidCredentials
	}
}

type stubTokens struct{}

func (stubTokens) Generate(models.StaffUser) (string, error) { return "signed", nil }

func TestLogin(t *testing.T) {
	r := chi.NewRouter()
	handlers.NewAuthHandler(stubStaff{}, stubTokens{}, discardLogger()).Register(r)

	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"ok", `{"username":" till1 ","password":"pw"}`, http.StatusOK},
		{"wrong password", `{"username":"till1","password":"nope"}`, http.StatusUnauthorized},
		{"missing fields", `{"username":"till1"}`, http.StatusBadRequest},
		{"bad json", `not json`, http.StatusBadRequest},
		{"backend failure", `{"username":"broken","password":"x"}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"token":"signed"`)
				assert.NotContains(t, rec.Body.String(), "password")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	r := chi.NewRouter()
	handlers.NewHealthHandler(time.Now()).Register(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
