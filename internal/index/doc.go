// Package index implements the account index: an AVL tree keyed by account
// number, where every record owns its own eventlog.Log.
//
// ARENA LAYOUT:
//
// Nodes live in a single slice. Child links are slot numbers rather than
// pointers, slot 0 is the nil sentinel, and released slots are recycled
// through a free list. Callers hold a Handle (slot plus generation), so a
// handle whose slot was released or reused is reported as stale instead of
// silently resolving to another account.
//
// REFERENCES:
//
// Get and Lookup return a *Record pointing into the arena. The pointer is
// valid until the next Insert or Delete; the arena may grow on insert and
// deletion may overwrite a slot with its in-order successor's payload.
// Balance and Log may be mutated through the pointer. The account number is
// read-only (Record.ID) because changing it would break the search order.
//
// BALANCING:
//
// Heights are recomputed bottom-up on the way out of every recursive insert
// or delete, child before parent, and the standard single/double rotations
// restore |height(left) - height(right)| <= 1 at each ancestor.
//
// CONCURRENCY:
//
// An Index is not safe for concurrent use. Each exported method is a
// self-contained unit, so wrapping an Index in one exclusive lock (see
// internal/ledger) is sufficient for multi-goroutine callers.
package index
