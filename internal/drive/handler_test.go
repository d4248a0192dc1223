package drive

import (
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestRegisterRoutes(t *testing.T) {
	h := NewHandler(nil, nil, DownloadOptions{})
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	cases := []struct {
		method string
		path   string
	}{
		{"GET", "/api/drive/files"},
		{"GET", "/api/drive/files/download"},
		{"POST", "/api/drive/sync"},
	}
	for _, tc := range cases {
		var match mux.RouteMatch
		req := httptest.NewRequest(tc.method, tc.path, nil)
		assert.True(t, r.Match(req, &match), "%s %s must be routed", tc.method, tc.path)
	}

	var match mux.RouteMatch
	req := httptest.NewRequest("GET", "/drive/files", nil)
	assert.False(t, r.Match(req, &match), "unprefixed path must not be routed")
}
