package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"stripe"}`))

	var body struct {
		Name string `json:"name"`
	}
	require.NoError(t, ParseJSON(r, &body))
	assert.Equal(t, "stripe", body.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`))
	assert.Error(t, ParseJSON(r, &body))
}

func TestParsePathInt64(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "42"})

	val, err := ParsePathInt64(r, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), val)

	r = mux.SetURLVars(r, map[string]string{"id": "abc"})
	_, err = ParsePathInt64(r, "id")
	assert.Error(t, err)

	r = mux.SetURLVars(r, map[string]string{})
	_, err = ParsePathInt64(r, "id")
	assert.Error(t, err)
}

func TestParsePathString(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/apis/stripe", nil)
	r = mux.SetURLVars(r, map[string]string{"api": "stripe"})

	val, err := ParsePathString(r, "api")
	require.NoError(t, err)
	assert.Equal(t, "stripe", val)

	_, err = ParsePathString(r, "missing")
	assert.Error(t, err)
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/events?limit=25", nil)

	val, err := ParseQueryInt(r, "limit", 50)
	require.NoError(t, err)
	assert.Equal(t, 25, val)

	val, err = ParseQueryInt(r, "offset", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, val)

	r = httptest.NewRequest(http.MethodGet, "/events?limit=abc", nil)
	_, err = ParseQueryInt(r, "limit", 50)
	assert.Error(t, err)
}
