package download

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bshttp "github.com/cperrin88/beatsync/pkg/http"
)

// testProvider serves payloads by lower-case hash under /download/hash/.
type testProvider struct {
	mu       sync.Mutex
	payloads map[string][]byte
	delay    time.Duration
	inFlight int
	peak     int
	requests []string
	srv      *httptest.Server
}

func newTestProvider(t *testing.T) *testProvider {
	t.Helper()
	p := &testProvider{payloads: make(map[string][]byte)}
	p.srv = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *testProvider) serve(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	p.mu.Lock()
	p.requests = append(p.requests, id)
	p.inFlight++
	if p.inFlight > p.peak {
		p.peak = p.inFlight
	}
	data, ok := p.payloads[id]
	delay := p.delay
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(data)
}

func (p *testProvider) add(hash string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads[strings.ToLower(hash)] = data
}

func (p *testProvider) requestCount(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.requests {
		if r == strings.ToLower(id) {
			n++
		}
	}
	return n
}

func (p *testProvider) peakConcurrency() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

func (p *testProvider) config(t *testing.T) JobConfig {
	t.Helper()
	prov, err := NewProvider(p.srv.URL)
	require.NoError(t, err)
	return JobConfig{
		Client:   bshttp.NewHTTPClient(bshttp.Options{Retries: 0, InitialWait: time.Millisecond}),
		Provider: prov,
	}
}

type failingContainer struct {
	MemoryContainer
}

func (f *failingContainer) Write([]byte) (int, error) {
	return 0, io.ErrShortWrite
}
