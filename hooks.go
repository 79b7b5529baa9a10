package cachers

// Hooks receives high-signal events from stores and responses.
// Implementations must be cheap and non-blocking; several of them fire from
// whichever goroutine completes or releases a response.
type Hooks interface {
	// A store was released by its owner while other references (usually live
	// responses) were still outstanding. remaining is the count left behind.
	StoreReleasedInUse(namespace string, remaining int64)

	// A response was destroyed while a callback was bound and no data had
	// arrived. The callback is dropped without being invoked.
	CallbackDropped(header []byte)

	// A second ReadOrBind on a bound response, or a second completion on a
	// ready one, was rejected.
	BindRejected(header []byte)
	CompleteRejected(header []byte)

	// The loader finished a request with StateError.
	LoadFailed(header []byte, err error)

	// A stored entry was deleted on read.
	// reason ∈ {"corrupt", "gen_mismatch"}
	SelfHeal(storageKey, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(storageKey string)

	// GenStore errors.
	GenSnapshotError(storageKey string, err error)
	GenBumpError(storageKey string, err error)

	// Both generation bump and delete failed during Invalidate.
	InvalidateOutage(key string, bumpErr, delErr error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) StoreReleasedInUse(string, int64)      {}
func (NopHooks) CallbackDropped([]byte)                {}
func (NopHooks) BindRejected([]byte)                   {}
func (NopHooks) CompleteRejected([]byte)               {}
func (NopHooks) LoadFailed([]byte, error)              {}
func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) ProviderSetRejected(string)            {}
func (NopHooks) GenSnapshotError(string, error)        {}
func (NopHooks) GenBumpError(string, error)            {}
func (NopHooks) InvalidateOutage(string, error, error) {}
