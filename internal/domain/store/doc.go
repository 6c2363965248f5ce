/*
Package store holds the merged application records and their durable layout.

Each record combines code-supplied metadata (never persisted) with a dynamic
part: icon position, window placement, open and minimized flags, zIndex and
size. Only the dynamic part is written, as JSON under a single key.

# Merge law

When metadata arrives for an ID that already has persisted state, the
persisted position/open/minimized/zIndex/size survive and every metadata
field is replaced. Stale persisted data never shadows code.

# Durability

UpdateApp and Prune write through immediately. Write failures are logged and
counted; repeated failures suspend writes through a resilience.WriteGuard,
so a broken backend is not hit on every drag.
*/
package store
