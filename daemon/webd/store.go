package webd

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jellydator/ttlcache/v3"

	"github.com/strayward/stopd/api"
	"github.com/strayward/stopd/params"
)

const lastResultKey = "last"

// resultCache keeps recently analyzed datasets in memory, by run id and as
// a TTL-bounded "last analyzed". It is the only place the daemon remembers
// a dataset between requests; the pipeline core stays stateless.
type resultCache struct {
	byID *lru.Cache[string, *api.Result]
	last *ttlcache.Cache[string, *api.Result]
}

func newResultCache() *resultCache {
	byID, err := lru.New[string, *api.Result](params.ResultCacheSize)
	if err != nil {
		panic(err)
	}
	last := ttlcache.New[string, *api.Result](
		ttlcache.WithTTL[string, *api.Result](params.CacheLastResultTTL))
	go last.Start()
	return &resultCache{byID: byID, last: last}
}

func (c *resultCache) Add(id string, res *api.Result) {
	c.byID.Add(id, res)
	c.last.Set(lastResultKey, res, ttlcache.DefaultTTL)
}

func (c *resultCache) Get(id string) (*api.Result, bool) {
	return c.byID.Get(id)
}

// Last returns the most recently analyzed dataset, or nil if none is cached.
func (c *resultCache) Last() *api.Result {
	item := c.last.Get(lastResultKey)
	if item == nil {
		return nil
	}
	return item.Value()
}

func (c *resultCache) Stop() {
	c.last.Stop()
}
