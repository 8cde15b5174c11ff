package component

import (
	"context"
	"html/template"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInstance struct {
	unmounted atomic.Int32
}

func (f *fakeInstance) Render(context.Context) (template.HTML, error) { return "ok", nil }
func (f *fakeInstance) Unmount()                                      { f.unmounted.Add(1) }

func TestRegistryOwnership(t *testing.T) {
	var mounted []int
	reg := NewRegistry(RegistryConfig{OnChange: func(n int) { mounted = append(mounted, n) }})
	inst := &fakeInstance{}
	id := uuid.New()
	reg.Add(id, "alice", inst)

	_, ok := reg.Get(id, "bob")
	assert.False(t, ok)
	assert.False(t, reg.Remove(id, "bob"))

	got, ok := reg.Get(id, "alice")
	require.True(t, ok)
	assert.Same(t, inst, got)

	assert.True(t, reg.Remove(id, "alice"))
	assert.Equal(t, int32(1), inst.unmounted.Load())
	assert.Zero(t, reg.Len())
	assert.Equal(t, []int{1, 0}, mounted)
}

func TestRegistrySweepsIdleInstances(t *testing.T) {
	reg := NewRegistry(RegistryConfig{IdleTTL: time.Minute})
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	idle, fresh := &fakeInstance{}, &fakeInstance{}
	idleID, freshID := uuid.New(), uuid.New()
	reg.Add(idleID, "s", idle)
	now = now.Add(50 * time.Second)
	reg.Add(freshID, "s", fresh)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, reg.Sweep(now))
	assert.Equal(t, int32(1), idle.unmounted.Load())
	assert.Zero(t, fresh.unmounted.Load())

	_, ok := reg.Get(idleID, "s")
	assert.False(t, ok)
	_, ok = reg.Get(freshID, "s")
	assert.True(t, ok)
}

func TestRegistryRunClosesOnCancel(t *testing.T) {
	reg := NewRegistry(RegistryConfig{SweepInterval: 10 * time.Millisecond})
	inst := &fakeInstance{}
	reg.Add(uuid.New(), "s", inst)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}
	assert.Equal(t, int32(1), inst.unmounted.Load())
	assert.Zero(t, reg.Len())
}

func TestRegistryReplacesSameID(t *testing.T) {
	reg := NewRegistry(RegistryConfig{})
	first, second := &fakeInstance{}, &fakeInstance{}
	id := uuid.New()
	reg.Add(id, "s", first)
	reg.Add(id, "s", second)

	assert.Equal(t, int32(1), first.unmounted.Load())
	assert.Equal(t, 1, reg.Len())
}
