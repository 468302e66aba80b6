package tika

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("Jane Doe\n\nBackend   engineer\twith Go.\x00"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	text, err := c.Extract(context.Background(), "resume.pdf", []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe Backend engineer with Go.", text)
}

func TestExtract_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Extract(context.Background(), "resume.pdf", []byte("data"))
	assert.Error(t, err)
}

func TestContentTypeFallsBackToExtension(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		fileName string
		content  []byte
		want     string
	}{
		{name: "pdf magic wins", fileName: "cv.bin", content: []byte("%PDF-1.7 stuff"), want: "application/pdf"},
		{name: "docx extension fallback", fileName: "cv.docx", content: []byte{0x00, 0x01, 0x02, 0x03}, want: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{name: "unknown stays empty", fileName: "cv.xyz", content: []byte{0x00, 0x01, 0x02, 0x03}, want: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, contentType(tc.fileName, tc.content))
		})
	}
}
