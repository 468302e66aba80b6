package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendRow(t *testing.T) {
	t.Parallel()
	var got appendRowPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(srv.URL)
	err := s.AppendRow(context.Background(), "applications", []string{"app-1", "Acme", "82"})
	require.NoError(t, err)
	assert.Equal(t, "applications", got.Sheet)
	assert.Equal(t, []string{"app-1", "Acme", "82"}, got.Values)
}

func TestAppendRow_Non2xxIsInformationalError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := New(srv.URL)
	err := s.AppendRow(context.Background(), "applications", []string{"app-1"})
	assert.Error(t, err)
}

func TestAppendRow_DisabledSink(t *testing.T) {
	t.Parallel()
	s := New("")
	assert.NoError(t, s.AppendRow(context.Background(), "applications", []string{"row"}))
}
