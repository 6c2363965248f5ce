/*
Package resilience guards durable layout writes.

A drag persists a position on every release. When the storage backend is
failing (disk full, database locked) the WriteGuard opens after a run of
consecutive failures and later writes are rejected without touching the
backend. The in-memory layout stays authoritative, so a rejected write only
delays durability until the next trial write succeeds.

# Usage

	guard := resilience.NewWriteGuard(resilience.Policy{
		Failures: cfg.Storage.WriteFailures,
		Cooldown: cfg.Storage.WriteCooldown,
	})

	outcome, err := guard.Write(func() error {
		return backend.Put(ctx, key, data)
	})
	metrics.RecordStoreSave(string(outcome))

# States

	Closed --[Failures in a row]-> Open --[Cooldown]-> Trial --[ok]-> Closed
	                                 ^                   |
	                                 +-----[error]-------+
*/
package resilience
