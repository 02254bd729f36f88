// Package testutil holds helpers shared by package and CLI tests: beatmap
// builders and a fake beatmap provider.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// ProviderServer serves beatmap zips under /download/hash/{hash} and
// /download/key/{key}. Unknown identifiers get a 404.
type ProviderServer struct {
	Server *httptest.Server
	URL    string

	mu       sync.Mutex
	payloads map[string][]byte
	requests map[string]int
}

// NewProviderServer starts a provider and stops it when the test ends.
func NewProviderServer(t *testing.T) *ProviderServer {
	t.Helper()
	ps := &ProviderServer{
		payloads: make(map[string][]byte),
		requests: make(map[string]int),
	}
	ps.Server = httptest.NewServer(http.HandlerFunc(ps.serve))
	ps.URL = ps.Server.URL
	t.Cleanup(ps.Server.Close)
	return ps
}

func (ps *ProviderServer) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/download/")
	kind, id, ok := strings.Cut(path, "/")
	if !ok || (kind != "hash" && kind != "key") {
		http.NotFound(w, r)
		return
	}
	id = kind + "/" + strings.ToLower(id)

	ps.mu.Lock()
	ps.requests[id]++
	data, found := ps.payloads[id]
	ps.mu.Unlock()

	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write(data)
}

// AddHash serves data for hash.
func (ps *ProviderServer) AddHash(hash string, data []byte) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.payloads["hash/"+strings.ToLower(hash)] = data
}

// AddKey serves data for key.
func (ps *ProviderServer) AddKey(key string, data []byte) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.payloads["key/"+strings.ToLower(key)] = data
}

// Requests returns how often hash was requested.
func (ps *ProviderServer) Requests(hash string) int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.requests["hash/"+strings.ToLower(hash)]
}
