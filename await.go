package cachers

import "context"

// Await returns r's terminal snapshot, waiting for it if necessary. It binds
// r's callback, so it fails with HasData if another binding already exists.
// If ctx ends first the binding stays in place and the late delivery is
// discarded.
func (r *Response) Await(ctx context.Context) (Snapshot, error) {
	ch := make(chan Snapshot, 1)
	snap, ready, err := r.ReadOrBind(func(s Snapshot, _ any) { ch <- s }, nil)
	if err != nil {
		return Snapshot{}, err
	}
	if ready {
		return snap, nil
	}
	select {
	case snap = <-ch:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}
