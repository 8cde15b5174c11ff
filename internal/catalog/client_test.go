package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetJSON = `{"id":42,"name":"Widget","description":"A widget","price":"9.99","image":"widget.png"}`

func newAPI(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products/42", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestFetchDecodesProduct(t *testing.T) {
	srv, hits := newAPI(t, http.StatusOK, widgetJSON)
	var outcomes []string
	client := NewClient(srv.URL+"/", WithObserver(func(o string) { outcomes = append(outcomes, o) }))

	p, err := client.Fetch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, Product{ID: 42, Name: "Widget", Description: "A widget", Price: "9.99", Image: "widget.png"}, p)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, []string{OutcomeSuccess}, outcomes)
}

func TestFetchAcceptsEmptyDescription(t *testing.T) {
	srv, _ := newAPI(t, http.StatusOK, `{"id":42,"name":"Widget","description":"","price":"1","image":"w.png"}`)
	p, err := NewClient(srv.URL).Fetch(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, p.Description)
}

func TestFetchDecodeFailures(t *testing.T) {
	cases := map[string]string{
		"not json":      `<html>oops</html>`,
		"missing field": `{"id":42,"name":"Widget","price":"9.99","image":"widget.png"}`,
		"wrong type":    `{"id":"42","name":"Widget","description":"A widget","price":"9.99","image":"widget.png"}`,
		"bad price":     `{"id":42,"name":"Widget","description":"A widget","price":"cheap","image":"widget.png"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := newAPI(t, http.StatusOK, body)
			var outcomes []string
			client := NewClient(srv.URL, WithObserver(func(o string) { outcomes = append(outcomes, o) }))

			_, err := client.Fetch(context.Background(), 42)
			require.Error(t, err)
			assert.True(t, IsDecode(err), "expected decode error, got %v", err)
			assert.False(t, IsNetwork(err))
			assert.Equal(t, []string{OutcomeDecodeError}, outcomes)
		})
	}
}

func TestFetchStatusIsNetworkError(t *testing.T) {
	srv, _ := newAPI(t, http.StatusNotFound, `{"error":"not found"}`)
	_, err := NewClient(srv.URL).Fetch(context.Background(), 42)
	require.Error(t, err)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, WithTimeout(time.Second)).Fetch(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

func TestGetProductInvokesHandlerOnce(t *testing.T) {
	srv, hits := newAPI(t, http.StatusOK, widgetJSON)
	client := NewClient(srv.URL)

	var (
		mu    sync.Mutex
		calls int
		got   Product
	)
	task := client.GetProduct(42, func(p Product, err error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		got = p
		assert.NoError(t, err)
	})

	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("task did not complete")
	}
	task.Complete(Product{}, nil)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Widget", got.Name)
	assert.Equal(t, int32(1), hits.Load())
}

func TestReleasedTaskDropsResult(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(widgetJSON))
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	called := make(chan struct{}, 1)
	task := NewClient(srv.URL).GetProduct(42, func(Product, error) { called <- struct{}{} })
	task.Release()
	close(release)

	select {
	case <-task.Done():
	default:
		t.Fatal("released task should report done")
	}
	select {
	case <-called:
		t.Fatal("handler must not run after release")
	case <-time.After(200 * time.Millisecond):
	}
}
