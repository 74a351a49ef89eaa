// Package testutil provides httptest doubles for the external
// collaborators (spreadsheet API, marketplace API).
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockServer is a configurable mock HTTP server for collaborator tests.
type MockServer struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount int
	Paths        []string
}

// NewMockServer creates a mock server. Paths without a registered
// handler answer 404.
func NewMockServer() *MockServer {
	mock := &MockServer{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.Paths = append(mock.Paths, r.URL.Path)
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// SetHandler registers a custom handler for a path. The path is matched
// against the decoded request path.
func (m *MockServer) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetJSONResponse registers a fixed JSON response for a path.
func (m *MockServer) SetJSONResponse(path string, statusCode int, body string) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(statusCode)
		if body != "" {
			w.Write([]byte(body))
		}
	})
}

// GetRequestCount returns the number of requests the server has seen.
func (m *MockServer) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// ValuesBody renders a spreadsheet values response for the given rows.
func ValuesBody(values [][]any) string {
	data, err := json.Marshal(map[string]any{"values": values})
	if err != nil {
		panic(err)
	}
	return string(data)
}
