// Package cachers is the core of a cache client that is driven through opaque
// handles. A caller opens a Store, looks keys up and gets back a Response: a
// single-assignment value that is either ready at once or completed later by
// the Store's Loader on another goroutine.
//
// Components:
//   - Store: reference-counted session. Every live Response keeps its Store alive.
//   - Response: Empty -> Bound -> Ready, or Empty -> Ready. The value is delivered
//     exactly once, either by ReadOrBind or through the bound Callback.
//   - Loader: resolves lookups. EchoLoader by default, a provider-backed loader
//     when Options.Provider is set, asyncload for a worker pool.
//   - Thread: the handle/code surface. Each method validates its handles,
//     returns a Code and records the failure for LastError.
//
// Handle ownership:
//
//	borrowed  - Lookup(store), ReadOrBind(cell), Complete(cell), Put(store) ...
//	consumed  - Release(store), ReleaseResponse(cell)
//	returned  - Open -> store, Lookup -> Snapshot.Token
//
// Writes use per-key generations (see genstore):
//
//	obs, _ := store.SnapshotGen(ctx, k) // before the source-of-truth read
//	v := readFromDB(k)
//	_ = store.PutWithGen(ctx, k, v, obs, 0) // stored iff the gen is still obs
package cachers
