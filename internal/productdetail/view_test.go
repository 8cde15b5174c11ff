package productdetail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/storefront/internal/catalog"
	"github.com/odyssey-erp/storefront/internal/view"
)

type fakeFetcher struct {
	mu     sync.Mutex
	ids    []int64
	tasks  []*catalog.Task
	issued chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{issued: make(chan struct{}, 8)}
}

func (f *fakeFetcher) GetProduct(id int64, handler catalog.Handler) *catalog.Task {
	task := catalog.NewTask(handler)
	f.mu.Lock()
	f.ids = append(f.ids, id)
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()
	f.issued <- struct{}{}
	return task
}

func (f *fakeFetcher) calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.ids...)
}

// respond completes the single outstanding request.
func (f *fakeFetcher) respond(t *testing.T, p catalog.Product, err error) {
	t.Helper()
	select {
	case <-f.issued:
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch issued")
	}
	f.mu.Lock()
	task := f.tasks[len(f.tasks)-1]
	f.mu.Unlock()
	task.Complete(p, err)
}

var widget = catalog.Product{ID: 42, Name: "Widget", Description: "A widget", Price: "9.99", Image: "widget.png"}

func mount(t *testing.T, id int64, onAdd func(catalog.Product)) (*Handle, *fakeFetcher) {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	fetcher := newFakeFetcher()
	h := Mount(fetcher, engine, Props{ID: id, OnAddToCart: onAdd, Action: "/views/v1/add-to-cart", CSRFToken: "tok"})
	t.Cleanup(h.Unmount)
	return h, fetcher
}

func render(t *testing.T, h *Handle) string {
	t.Helper()
	html, err := h.Render(context.Background())
	require.NoError(t, err)
	return string(html)
}

func state(t *testing.T, h *Handle) State {
	t.Helper()
	st, err := h.State(context.Background())
	require.NoError(t, err)
	return st
}

func TestMountIssuesOneFetchAndRendersLoading(t *testing.T) {
	h, fetcher := mount(t, 42, nil)

	out := render(t, h)
	assert.Contains(t, out, "Loading...")
	assert.NotContains(t, out, "Error loading product")

	st := state(t, h)
	assert.False(t, st.Loaded)
	assert.Equal(t, PhaseLoading, st.Phase())
	assert.Equal(t, []int64{42}, fetcher.calls())
}

func TestSuccessRendersProduct(t *testing.T) {
	h, fetcher := mount(t, 42, nil)
	assert.Contains(t, render(t, h), "Loading...")

	fetcher.respond(t, widget, nil)

	out := render(t, h)
	assert.Contains(t, out, "$9.99")
	assert.Contains(t, out, `src="/products/widget.png"`)
	assert.Contains(t, out, "Widget")
	assert.Contains(t, out, "A widget")
	assert.Contains(t, out, `action="/views/v1/add-to-cart"`)
	assert.NotContains(t, out, "Loading...")

	st := state(t, h)
	assert.True(t, st.Loaded)
	assert.Nil(t, st.Err)
	require.NotNil(t, st.Product)
	assert.Equal(t, widget, *st.Product)
	assert.Equal(t, []int64{42}, fetcher.calls())
}

func TestTransportFailureRendersGenericError(t *testing.T) {
	h, fetcher := mount(t, 7, nil)
	fetcher.respond(t, catalog.Product{}, &catalog.NetworkError{Err: errors.New("connection refused")})

	out := render(t, h)
	assert.Contains(t, out, "Error loading product")
	assert.NotContains(t, out, "connection refused")
	assert.NotContains(t, out, "$")
	assert.NotContains(t, out, "product_detail_name")

	st := state(t, h)
	assert.True(t, st.Loaded)
	assert.Nil(t, st.Product)
	assert.True(t, catalog.IsNetwork(st.Err))
	assert.Equal(t, PhaseFailure, st.Phase())
}

func TestDecodeFailureRendersGenericError(t *testing.T) {
	h, fetcher := mount(t, 7, nil)
	fetcher.respond(t, catalog.Product{}, &catalog.DecodeError{Err: errors.New("unexpected EOF")})

	assert.Contains(t, render(t, h), "Error loading product")
	assert.True(t, state(t, h).Loaded)
}

func TestResultIsDeliveredExactlyOnce(t *testing.T) {
	h, fetcher := mount(t, 42, nil)
	fetcher.respond(t, widget, nil)
	require.True(t, state(t, h).Loaded)
	before := h.Revision()

	fetcher.mu.Lock()
	task := fetcher.tasks[0]
	fetcher.mu.Unlock()
	task.Complete(catalog.Product{}, errors.New("late"))

	st := state(t, h)
	assert.True(t, st.Loaded)
	assert.Nil(t, st.Err)
	assert.Equal(t, before, h.Revision())
	assert.Len(t, fetcher.calls(), 1)
}

func TestSetPropsDoesNotRefetch(t *testing.T) {
	h, fetcher := mount(t, 42, nil)
	fetcher.respond(t, widget, nil)

	require.NoError(t, h.SetProps(context.Background(), Props{ID: 99}))

	assert.Equal(t, []int64{42}, fetcher.calls())
	assert.Contains(t, render(t, h), "Widget")
}

func TestAddToCartInvokesCallbackWithProduct(t *testing.T) {
	var got []catalog.Product
	h, fetcher := mount(t, 42, func(p catalog.Product) { got = append(got, p) })

	added, err := h.AddToCart(context.Background())
	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, got)

	fetcher.respond(t, widget, nil)
	added, err = h.AddToCart(context.Background())
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []catalog.Product{widget}, got)
}

func TestUnmountReleasesOutstandingFetch(t *testing.T) {
	h, fetcher := mount(t, 42, nil)
	select {
	case <-fetcher.issued:
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch issued")
	}
	h.Unmount()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("view did not stop")
	}

	fetcher.mu.Lock()
	task := fetcher.tasks[0]
	fetcher.mu.Unlock()
	select {
	case <-task.Done():
	default:
		t.Fatal("task should be released")
	}

	_, err := h.Render(context.Background())
	assert.Error(t, err)
}
