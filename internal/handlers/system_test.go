package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"marketplace/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemRoutes(t *testing.T) {
	r := newTestRouter(&service.Service{})

	cases := []struct {
		path   string
		wantIn string
	}{
		{"/health", `"status":"ok"`},
		{"/about", "Marketplace"},
		{"/swagger/doc.json", "Marketplace API"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			w := doJSON(r, http.MethodGet, tc.path, "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tc.wantIn)
		})
	}
}

func TestSwaggerDocCoversEveryRoute(t *testing.T) {
	r := newTestRouter(&service.Service{})

	w := doJSON(r, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))

	for _, rt := range r.Routes() {
		if strings.HasPrefix(rt.Path, "/swagger") || strings.HasPrefix(rt.Path, "/ws") || strings.HasPrefix(rt.Path, imagesPath) {
			continue
		}
		// gin ":param" -> swagger "{param}"
		parts := strings.Split(rt.Path, "/")
		for i, p := range parts {
			if strings.HasPrefix(p, ":") {
				parts[i] = "{" + p[1:] + "}"
			}
		}
		path := strings.Join(parts, "/")
		_, ok := doc.Paths[path][strings.ToLower(rt.Method)]
		assert.True(t, ok, "%s %s is not documented", rt.Method, path)
	}
}
