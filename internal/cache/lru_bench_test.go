package cache

import (
	"strconv"
	"testing"
	"time"
)

func networkKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "network-" + strconv.Itoa(i)
	}
	return keys
}

func BenchmarkLRU_Put(b *testing.B) {
	c := NewLRU[string, feeParams]("bench_put", 4096, time.Minute)
	keys := networkKeys(4096)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(keys[i%len(keys)], feeParams{energyPrice: int64(i)})
	}
}

func BenchmarkLRU_GetHit(b *testing.B) {
	c := NewLRU[string, feeParams]("bench_hit", 4096, time.Minute)
	keys := networkKeys(4096)
	for _, k := range keys {
		c.Put(k, feeParams{})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(keys[i%len(keys)])
	}
}

func BenchmarkLRU_PutEvicting(b *testing.B) {
	c := NewLRU[string, feeParams]("bench_evict", 64, time.Minute)
	keys := networkKeys(4096)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(keys[i%len(keys)], feeParams{})
	}
}
