package redisx

import "time"

const (
	// Session store: session:{token} -> JSON {user_id, tenant_id, role}
	KeySession = "session:%s"

	// Idempotency fast path for checkout: idem:order:create:{external_id} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cache status order: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Response cache entries and their tag sets.
	KeyCache    = "cache:%s"
	KeyCacheTag = "cache:tag:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
	TTLCatalog     = 60 * time.Second
)
