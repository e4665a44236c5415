package boxtribute

import "sync"

// qrResultCache stores resolved QR codes for the cache-first policy.
//
// Only fully authorized resolutions with a linked box are cached: an
// unassigned code may gain a box at any moment (label printed, box created)
// and must not be pinned to a stale "unassigned" answer.
type qrResultCache struct {
	mu      sync.RWMutex
	entries map[string]QRResult
}

func newQRResultCache() *qrResultCache {
	return &qrResultCache{entries: make(map[string]QRResult)}
}

func (c *qrResultCache) get(code string) (QRResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[code]
	return r, ok
}

func (c *qrResultCache) put(code string, r QRResult) {
	if !r.Found || r.Box == nil || !r.BoxAuthorized || !r.BaseAuthorized {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = r
}

// FlushQRCache drops all cached QR resolutions.
func (c *Client) FlushQRCache() {
	c.qrCache.mu.Lock()
	defer c.qrCache.mu.Unlock()
	c.qrCache.entries = make(map[string]QRResult)
}
