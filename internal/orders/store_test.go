package orders

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateIfAbsent(t *testing.T) {
	s := NewStore[Order]()

	require.True(t, s.CreateIfAbsent("ORD-1", Order{ID: "ORD-1", Status: StatusNew}))
	assert.False(t, s.CreateIfAbsent("ORD-1", Order{ID: "ORD-1", Status: StatusConfirmed}))

	got, ok := s.Get("ORD-1")
	require.True(t, ok)
	assert.Equal(t, StatusNew, got.Status, "losing insert must not overwrite")
}

func TestStoreReplaceAndRemove(t *testing.T) {
	s := NewStore[Order]()

	// Replace inserts when absent
	s.Replace("ORD-1", Order{ID: "ORD-1", Status: StatusNew})
	s.Replace("ORD-1", Order{ID: "ORD-1", Status: StatusConfirmed})
	got, ok := s.Get("ORD-1")
	require.True(t, ok)
	assert.Equal(t, StatusConfirmed, got.Status)

	s.Remove("ORD-1")
	_, ok = s.Get("ORD-1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

// Concurrent single-writer-per-key traffic with readers on the same keys;
// run with -race.
func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore[Order]()
	var wg sync.WaitGroup

	for k := 0; k < 8; k++ {
		id := fmt.Sprintf("ORD-%08d", k)
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.CreateIfAbsent(id, Order{ID: id, Status: StatusNew})
			for i := 0; i < 100; i++ {
				s.Replace(id, Order{ID: id, Status: StatusConfirmed})
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if o, ok := s.Get(id); ok {
					// a reader sees a whole record, never a torn one
					assert.Equal(t, id, o.ID)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, s.Len())
}
