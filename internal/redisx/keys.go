package redisx

import "time"

const (
	// Dedup of consumed events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Cached order record: order:{order_id} -> full order JSON
	KeyOrder = "order:%s"
)

var (
	TTLDedup      = 48 * time.Hour
	TTLOrderCache = 5 * time.Minute
)
