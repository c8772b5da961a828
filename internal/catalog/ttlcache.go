// Copyright 2026 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"fmt"
	"sync"
	"time"
)

// ttlCache memoizes the result of an arbitrary call keyed by a caller-
// supplied function id plus argument key, bucketed into a time window
// so entries expire without any background eviction goroutine. This is
// the explicit Go rendering of the original engine's
// functools.lru_cache-backed ttl_cache decorator (shared.py):
// there the time bucket rides along as a hidden keyword argument,
// here it's folded directly into the cache key.
type ttlCache struct {
	ttl time.Duration
	m   sync.Map
}

type ttlCacheKey struct {
	funcID  string
	argsKey string
	bucket  int64
}

type ttlCacheEntry struct {
	val any
	err error
}

// newTTLCache returns a cache whose entries live for ttl before a call
// with the same key recomputes them.
func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{ttl: ttl}
}

// get returns compute()'s result, memoized for the current time bucket
// under (funcID, argsKey). Concurrent first calls for the same key may
// both run compute(); the last write wins, matching spec.md §5's
// "concurrent first-computation races are allowed."
func (c *ttlCache) get(funcID, argsKey string, compute func() (any, error)) (any, error) {
	bucket := time.Now().Unix() / int64(c.ttl/time.Second)
	key := ttlCacheKey{funcID: funcID, argsKey: argsKey, bucket: bucket}

	if v, ok := c.m.Load(key); ok {
		entry := v.(ttlCacheEntry)
		return entry.val, entry.err
	}

	val, err := compute()
	c.m.Store(key, ttlCacheEntry{val: val, err: err})
	return val, err
}

// argsKey builds a stable cache key from a call's positional arguments.
func argsKey(args ...any) string {
	return fmt.Sprint(args...)
}
