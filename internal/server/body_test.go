package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-bootstrap/internal/apperror"
)

type signup struct {
	Email string `json:"email"`
	Age   int    `json:"age"`
}

func jsonRequest(body string, limit int64) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if limit > 0 {
		req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, limit)
	}
	return req
}

func TestDecodeJSON(t *testing.T) {
	var dst signup
	require.NoError(t, DecodeJSON(jsonRequest(`{"email":"a@b.c","age":3}`, 0), &dst))
	assert.Equal(t, signup{Email: "a@b.c", Age: 3}, dst)
}

func TestDecodeJSON_Failures(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		limit     int64
		wantField string
		wantMsg   string
	}{
		{name: "empty", body: "", wantField: "body", wantMsg: "is required"},
		{name: "syntax", body: `{"email":`, wantField: "body", wantMsg: "is not valid JSON"},
		{name: "garbage", body: `{nope}`, wantField: "body", wantMsg: "is not valid JSON"},
		{name: "wrong type", body: `{"age":"three"}`, wantField: "age", wantMsg: "must be of type int"},
		{name: "trailing value", body: `{} {}`, wantField: "body", wantMsg: "must contain a single JSON value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst signup
			err := DecodeJSON(jsonRequest(tt.body, tt.limit), &dst)

			var v *apperror.Validation
			require.True(t, errors.As(err, &v), "got %v", err)
			assert.Equal(t, "Invalid JSON body", v.Message)
			require.Len(t, v.Details, 1)
			assert.Equal(t, tt.wantField, v.Details[0].Field)
			assert.Equal(t, tt.wantMsg, v.Details[0].Message)
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	var dst signup
	err := DecodeJSON(jsonRequest(`{"email":"`+strings.Repeat("x", 64)+`"}`, 16), &dst)

	var g *apperror.Generic
	require.True(t, errors.As(err, &g), "got %v", err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, g.StatusCode())
	assert.Equal(t, entityTooLargeMessage, g.Error())
}

func TestDecodeForm(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/?page=2", strings.NewReader("name=ada&tag=x&tag=y"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	values, err := DecodeForm(req)
	require.NoError(t, err)
	assert.Equal(t, "ada", values.Get("name"))
	assert.Equal(t, []string{"x", "y"}, values["tag"])
	assert.Equal(t, "2", values.Get("page"))
}

func TestDecodeForm_BadQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("a=%zz"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err := DecodeForm(req)
	var v *apperror.Validation
	require.True(t, errors.As(err, &v), "got %v", err)
	assert.Equal(t, "Invalid form body", v.Message)
}

func TestBodyLimitMiddleware(t *testing.T) {
	h := bodyLimitMiddleware(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var dst map[string]any
		err := DecodeJSON(r, &dst)
		var g *apperror.Generic
		if errors.As(err, &g) {
			w.WriteHeader(g.StatusCode())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"k":"0123456789"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
