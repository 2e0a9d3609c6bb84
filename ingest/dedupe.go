package ingest

import (
	"fmt"

	"github.com/golang/groupcache/lru"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/strayward/stopd/types/tracepoint"
)

// NewDedupePassLRUFunc returns a predicate that passes a point the first
// time it is seen and rejects repeats, using a Least Recently Used cache
// of struct hashes. Used when combining multiple uploaded files that may
// overlap.
func NewDedupePassLRUFunc() func(tracepoint.TracePoint) bool {
	dedupeCache := lru.New(10_000)
	return func(tp tracepoint.TracePoint) bool {
		hash, err := hashstructure.Hash(tp, hashstructure.FormatV2, nil)
		if err != nil {
			return false
		}
		key := fmt.Sprintf("%d", hash)
		_, ok := dedupeCache.Get(key)
		if ok {
			return false
		}
		dedupeCache.Add(key, true)
		return true
	}
}
