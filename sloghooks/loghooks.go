// Package sloghooks reports cachers.Hooks events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/cachers"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery uint64
	RejectEvery   uint64
	// Optional key redactor. Defaults to a SHA-256 prefix.
	Redact func([]byte) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
	rejectCtr   atomic.Uint64
}

var _ cachers.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k []byte) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256(k)
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n <= 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) StoreReleasedInUse(ns string, remaining int64) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachers.store_released_in_use", "ns", ns, "remaining", remaining)
}

func (h *Hooks) CallbackDropped(header []byte) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachers.callback_dropped", "key", h.redact(header))
}

func (h *Hooks) BindRejected(header []byte) {
	if h.l == nil || !sample(h.opts.RejectEvery, &h.rejectCtr) {
		return
	}
	h.l.Info("cachers.bind_rejected", "key", h.redact(header))
}

func (h *Hooks) CompleteRejected(header []byte) {
	if h.l == nil || !sample(h.opts.RejectEvery, &h.rejectCtr) {
		return
	}
	h.l.Info("cachers.complete_rejected", "key", h.redact(header))
}

func (h *Hooks) LoadFailed(header []byte, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachers.load_failed", "key", h.redact(header), "err", err)
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("cachers.self_heal", "key", h.redact([]byte(storageKey)), "reason", reason)
}

func (h *Hooks) ProviderSetRejected(storageKey string) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachers.provider_set_rejected", "key", h.redact([]byte(storageKey)))
}

func (h *Hooks) GenSnapshotError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachers.gen_snapshot_error", "key", h.redact([]byte(storageKey)), "err", err)
}

func (h *Hooks) GenBumpError(storageKey string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("cachers.gen_bump_error", "key", h.redact([]byte(storageKey)), "err", err)
}

func (h *Hooks) InvalidateOutage(key string, bumpErr, delErr error) {
	if h.l == nil {
		return
	}
	h.l.Error("cachers.invalidate_outage",
		"key", h.redact([]byte(key)),
		"bump_err", bumpErr,
		"del_err", delErr)
}
