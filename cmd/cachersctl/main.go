// Command cachersctl opens a cachers Store over a configurable provider and
// runs single lookups and writes against it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachers"
)

type rootFlags struct {
	config string
}

func newRootCmd() *cobra.Command {
	rf := new(rootFlags)
	root := &cobra.Command{
		Use:           "cachersctl",
		Short:         "Look up, write and invalidate keys in a cachers store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&rf.config, "config", "c", "", "config file")
	pf.String("namespace", "default", "key namespace")
	pf.String("provider", "none", "none, memory, ristretto, bigcache or redis")
	pf.Duration("ttl", 0, "entry TTL (0 = store default)")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.Duration("timeout", 0, "per-command timeout")
	pf.String("redis", "", "redis address")

	root.AddCommand(
		newGetCmd(rf),
		newPutCmd(rf),
		newInvalidateCmd(rf),
		newGenCmd(rf),
	)
	return root
}

// session is what every subcommand runs against.
type session struct {
	cfg   *Config
	store *cachers.Store
	log   *zap.Logger
	out   io.Writer
}

func withSession(rf *rootFlags, cmd *cobra.Command, f func(ctx context.Context, s *session) error) error {
	cfg, err := loadConfig(rf.config, cmd.Flags())
	if err != nil {
		return err
	}
	zl, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	defer zl.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	store, cleanup, err := openStore(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer cleanup()
	defer store.Release()

	return f(ctx, &session{cfg: cfg, store: store, log: zl, out: cmd.OutOrStdout()})
}

func newGetCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Look a key up and print its value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rf, cmd, func(ctx context.Context, s *session) error {
				r, err := s.store.Lookup(ctx, []byte(args[0]))
				if err != nil {
					return err
				}
				defer r.Release()

				snap, err := r.Await(ctx)
				if err != nil {
					return err
				}
				switch snap.State {
				case cachers.StateComplete:
					_, err = fmt.Fprintf(s.out, "%s\n", snap.Data)
					return err
				case cachers.StateError:
					return errors.New(snap.Err)
				default:
					return fmt.Errorf("%s: %w", args[0], cachers.ErrEmpty)
				}
			})
		},
	}
}

func newPutCmd(rf *rootFlags) *cobra.Command {
	var gen int64
	cmd := &cobra.Command{
		Use:   "put KEY VALUE",
		Short: "Store a value under the key's current (or given) generation.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rf, cmd, func(ctx context.Context, s *session) error {
				key, val := []byte(args[0]), []byte(args[1])
				if gen < 0 {
					return s.store.Put(ctx, key, val, s.cfg.TTL)
				}
				return s.store.PutWithGen(ctx, key, val, uint64(gen), s.cfg.TTL)
			})
		},
	}
	cmd.Flags().Int64Var(&gen, "gen", -1, "observed generation; skip the write if it moved")
	return cmd
}

func newInvalidateCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate KEY",
		Short: "Bump the key's generation and delete its entry.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rf, cmd, func(ctx context.Context, s *session) error {
				return s.store.Invalidate(ctx, []byte(args[0]))
			})
		},
	}
}

func newGenCmd(rf *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "gen KEY",
		Short: "Print the key's current generation.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rf, cmd, func(ctx context.Context, s *session) error {
				g, err := s.store.SnapshotGen(ctx, []byte(args[0]))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(s.out, g)
				return err
			})
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cachersctl:", err)
		os.Exit(1)
	}
}
