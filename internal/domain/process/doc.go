/*
Package process implements the resource registry: the ledger of every
transient resource an application holds.

Applications never touch the scheduler, the message bus or input targets
directly. They acquire through a Context, which records each handle in the
application's queue and wraps each callback so its run time is charged to the
application. Kill releases the queue in a fixed order:

 1. teardown callbacks (each isolated; a panic is logged and counted)
 2. recurring timers
 3. one-shot timers
 4. frame callbacks
 5. input listeners
 6. bus subscriptions
 7. the queue entry itself

A Context outlives its queue harmlessly: after Kill it acquires nothing,
schedules nothing and never recreates the queue. Call Registry.Context again
to start a fresh one.
*/
package process
