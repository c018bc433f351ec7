package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextID_Unique(t *testing.T) {
	seen := make(map[int64]bool)
	for i := 0; i < 10000; i++ {
		id := NextID()
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}

func TestNextID_ConcurrentUnique(t *testing.T) {
	const workers = 10
	const perWorker = 1000

	var wg sync.WaitGroup
	ids := make(chan int64, workers*perWorker)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				ids <- NextID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestGenerateTransactionNo(t *testing.T) {
	no := GenerateTransactionNo()
	assert.True(t, strings.HasPrefix(no, "TXN"))
	// TXN + 14 digit timestamp + 8 digit suffix
	assert.Len(t, no, 25)
}

func TestGenerateOrderRef(t *testing.T) {
	ref := GenerateOrderRef("0a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9")
	assert.True(t, strings.HasPrefix(ref, "order_"))
	assert.True(t, strings.HasSuffix(ref, "_0a1b2c3d"))
}

func TestShortUserID(t *testing.T) {
	assert.Equal(t, "0a1b2c3d", ShortUserID("0a1b2c3d-4e5f"))
	assert.Equal(t, "short", ShortUserID("short"))
	assert.Equal(t, "", ShortUserID(""))
}
