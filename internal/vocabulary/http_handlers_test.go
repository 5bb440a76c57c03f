package vocabulary

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocastro-backend/internal/auth"
)

func asUser(r *http.Request, uid int) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), uid))
}

func TestLearnAndListHandlers(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/vocabulary",
		strings.NewReader(`{"phrase":"  Detonar ","meaning":"excluir"}`)), 7)
	rec := httptest.NewRecorder()
	LearnHandler(svc)(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"phrase":"detonar","meaning":"excluir"}}`, rec.Body.String())

	store.data[7]["bora"] = "começar"

	rec = httptest.NewRecorder()
	ListHandler(svc)(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/vocabulary", nil), 7))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Data []Entry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []Entry{{"bora", "começar"}, {"detonar", "excluir"}}, got.Data)
}

func TestLearnHandler_Errors(t *testing.T) {
	svc := NewService(newMemStore())

	tests := []struct {
		body string
		code int
	}{
		{`{"phrase":"x"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		LearnHandler(svc)(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/vocabulary", strings.NewReader(tt.body)), 1))
		assert.Equal(t, tt.code, rec.Code, tt.body)
	}

	rec := httptest.NewRecorder()
	LearnHandler(svc)(rec, httptest.NewRequest(http.MethodPost, "/api/vocabulary", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
