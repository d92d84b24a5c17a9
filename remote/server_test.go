package remote

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

const testAPIKey = "025002"

// fakeServer is a bot server stand-in. It records every request it receives
// keyed by "METHOD /path".
type fakeServer struct {
	*httptest.Server

	mu      sync.Mutex
	hits    map[string]int
	queries map[string]url.Values
	bodies  map[string][]byte
	headers map[string]http.Header
}

func newFakeServer(t *testing.T, register func(r *gin.Engine)) *fakeServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fs := &fakeServer{
		hits:    make(map[string]int),
		queries: make(map[string]url.Values),
		bodies:  make(map[string][]byte),
		headers: make(map[string]http.Header),
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		key := c.Request.Method + " " + c.Request.URL.Path
		fs.mu.Lock()
		fs.hits[key]++
		fs.queries[key] = c.Request.URL.Query()
		fs.bodies[key] = body
		fs.headers[key] = c.Request.Header.Clone()
		fs.mu.Unlock()

		if c.Request.URL.Path != "/" && c.Query("api_key") != testAPIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Invalid API key"})
			return
		}
		c.Next()
	})
	register(r)

	fs.Server = httptest.NewServer(r)
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) client(opts ...ClientOption) Client {
	return New(fs.URL, append([]ClientOption{WithAPIKey(testAPIKey)}, opts...)...)
}

func (fs *fakeServer) hitCount(key string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.hits[key]
}

func (fs *fakeServer) totalHits() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for _, v := range fs.hits {
		n += v
	}
	return n
}

func (fs *fakeServer) query(key string) url.Values {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.queries[key]
}

func (fs *fakeServer) body(key string) []byte {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.bodies[key]
}

func (fs *fakeServer) header(key string) http.Header {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.headers[key]
}

// raw answers with a fixed status code and body.
func raw(code int, body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(code, "application/json", []byte(body))
	}
}

func expectKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !IsKind(err, kind) {
		t.Fatalf("expected %s error, got %#v", kind, err)
	}
	return err.(*Error)
}
