package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryPolicy_Apply(t *testing.T) {
	tuple1 := []interface{}{"received", "a", uint64(1), "p1", ""}
	tuple2 := []interface{}{"received", "b", uint64(2), "p1", ""}

	t.Run("append raw keeps arrival order", func(t *testing.T) {
		policy := AppendRaw()
		var history []interface{}
		history = policy.Apply(history, tuple1)
		history = policy.Apply(history, tuple2)
		assert.Equal(t, []interface{}{tuple1, tuple2}, history)
	})

	t.Run("disabled records nothing", func(t *testing.T) {
		policy := NoHistory()
		assert.True(t, policy.Disabled())
		history := policy.Apply(nil, tuple1)
		assert.Nil(t, history)
	})

	t.Run("custom update folds values", func(t *testing.T) {
		policy := CustomUpdate(func(history []interface{}, tuple []interface{}) []interface{} {
			// keep only the latest tuple
			return []interface{}{tuple}
		})
		assert.False(t, policy.Disabled())
		history := policy.Apply(nil, tuple1)
		history = policy.Apply(history, tuple2)
		assert.Equal(t, []interface{}{tuple2}, history)
	})

	t.Run("custom update without function is disabled", func(t *testing.T) {
		policy := CustomUpdate(nil)
		assert.True(t, policy.Disabled())
		assert.Nil(t, policy.Apply(nil, tuple1))
	})
}

func TestHistoryRegistry(t *testing.T) {
	registry := NewHistoryRegistry()
	registry.Register("requests", KindReceived)
	registry.Register("acks", KindReceived)
	registry.Register("outbound", KindSent)

	policy := AppendRaw()
	registry.Update("requests", policy, []interface{}{"r1"})
	registry.Update("requests", policy, []interface{}{"r2"})
	registry.Update("outbound", policy, []interface{}{"s1"})
	registry.Update("unknown", policy, []interface{}{"ignored"})

	assert.Equal(t, 2, registry.Len("requests"))
	assert.Equal(t, 1, registry.Len("outbound"))
	assert.Equal(t, 0, registry.Len("unknown"))
	assert.ElementsMatch(t, []string{"requests", "acks", "outbound"}, registry.Names())

	snapshot := registry.Snapshot("requests")
	assert.Equal(t, []interface{}{[]interface{}{"r1"}, []interface{}{"r2"}}, snapshot)
	snapshot[0] = "mutated"
	assert.Equal(t, 2, registry.Len("requests"))
	assert.Equal(t, []interface{}{[]interface{}{"r1"}, []interface{}{"r2"}}, registry.Snapshot("requests"))

	registry.Purge(KindReceived)
	assert.Equal(t, 0, registry.Len("requests"))
	assert.Equal(t, 0, registry.Len("acks"))
	assert.Equal(t, 1, registry.Len("outbound"), "purge by kind must not touch sent histories")

	registry.Purge(KindSent)
	assert.Equal(t, 0, registry.Len("outbound"))
}

func TestHistoryRegistry_RegisterKeepsExisting(t *testing.T) {
	registry := NewHistoryRegistry()
	registry.Register("requests", KindReceived)
	registry.Update("requests", AppendRaw(), []interface{}{"r1"})
	registry.Register("requests", KindReceived)
	assert.Equal(t, 1, registry.Len("requests"))
}
