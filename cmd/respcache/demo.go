package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mindmate/respcache"
	"github.com/mindmate/respcache/keys"
	"github.com/mindmate/respcache/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDemoCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through the cache behaviour on simulated time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cfg.Log.NewLogger(cmd.ErrOrStderr()))
		},
	}
}

type demoProfile struct {
	Name string
}

func runDemo(ctx context.Context, out io.Writer, logger *slog.Logger) error {
	clock := clockwork.NewFakeClock()
	cache := respcache.New(respcache.Config{Clock: clock, SweepInterval: -1, Logger: logger})
	defer cache.Close()

	step := func(title string) { fmt.Fprintf(out, "\n==================== %s ====================\n", title) }
	logger.Info("demo started", "clock", "fake")

	// ====================================================
	step("1) SET + HIT")
	cache.SetWithTTL("user:42", demoProfile{Name: "Ava"}, time.Second)
	clock.Advance(500 * time.Millisecond)
	v, ok := cache.Get("user:42")
	fmt.Fprintf(out, "t=500ms   GET user:42 = %v (hit=%v)\n", v, ok)

	// ====================================================
	step("2) EXPIRY")
	clock.Advance(time.Second)
	fmt.Fprintf(out, "t=1500ms  SIZE = %d (expired, not yet swept)\n", cache.Size())
	fmt.Fprintf(out, "t=1500ms  SWEEP removed %d\n", cache.SweepExpired())
	_, ok = cache.Get("user:42")
	fmt.Fprintf(out, "t=1500ms  GET user:42 hit=%v, SIZE = %d\n", ok, cache.Size())

	// ====================================================
	step("3) READ-THROUGH")
	var calls atomic.Int32
	gate := make(chan struct{})
	loader := types.LoaderFunc(func(ctx context.Context, key string) (any, error) {
		calls.Add(1)
		<-gate
		return demoProfile{Name: "Ava"}, nil
	})

	key := keys.User("42", "profile")
	queries := make([]*respcache.Query, 5)
	for i := range queries {
		queries[i] = cache.GetOrPopulate(ctx, key, loader, respcache.WithTTL(time.Minute))
	}
	fmt.Fprintf(out, "5 queries for %s, loading=%v\n", key, queries[0].IsLoading())
	close(gate)
	for i, q := range queries {
		v, err := q.Wait(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "QUERY-%d → %v\n", i, v)
	}
	fmt.Fprintf(out, "loader calls = %d\n", calls.Load())

	q := cache.GetOrPopulate(ctx, key, loader)
	fmt.Fprintf(out, "again → %v, loading=%v, loader calls = %d\n", q.Value(), q.IsLoading(), calls.Load())

	// ====================================================
	step("4) FAILURES ARE NOT CACHED")
	failing := types.LoaderFunc(func(context.Context, string) (any, error) {
		return nil, errors.New("backend unavailable")
	})
	_, err := cache.GetOrPopulate(ctx, "stats:mood", failing).Wait(ctx)
	fmt.Fprintf(out, "error = %v, cached = %v\n", err, cache.Has("stats:mood"))

	// ====================================================
	step("5) INVALIDATE")
	cache.Set(keys.User("42", "settings"), "dark")
	fmt.Fprintf(out, "removed %d user:42 entries\n", cache.Invalidate("user:42*"))

	st := cache.Stats()
	fmt.Fprintf(out, "\nentries=%d sweeps=%d swept=%d\n", st.Entries, st.Sweeps, st.Swept)
	return nil
}
