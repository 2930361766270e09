package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mindmate/respcache"
	"github.com/mindmate/respcache/eviction"
	"github.com/mindmate/respcache/types"
)

// ================= BENCHMARK =================

func main() {
	var (
		shards      = flag.Int("shards", 16, "cache shards")
		capacity    = flag.Int("capacity", 200000, "max entries, 0 for unbounded")
		preloadKeys = flag.Int("preload", 100000, "keys stored before the run")
		goroutines  = flag.Int("goroutines", 200, "concurrent readers")
		opsPerG     = flag.Int("ops", 5000, "operations per goroutine")
		ttl         = flag.Duration("ttl", time.Minute, "entry ttl")
		writeRatio  = flag.Int("write-pct", 10, "percentage of operations that write")
	)
	flag.Parse()
	if *preloadKeys < 1 {
		*preloadKeys = 1
	}

	ctx := context.Background()

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", *shards)
	fmt.Println("Capacity     :", *capacity)
	fmt.Println("Preload Keys :", *preloadKeys)
	fmt.Println("Goroutines   :", *goroutines)
	fmt.Println("Ops/Goroutine:", *opsPerG)
	fmt.Println("TTL          :", *ttl)
	fmt.Println("Write %      :", *writeRatio)
	fmt.Println("---------------------------------")

	c := respcache.New(respcache.Config{
		DefaultTTL: *ttl,
		Shards:     *shards,
		MaxEntries: *capacity,
		Eviction:   eviction.LRU,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	defer c.Close()

	// ---------------- Preload Cache ----------------
	fmt.Println("Preloading cache...")
	for i := 0; i < *preloadKeys; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}
	fmt.Println("Preload complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	var loads atomic.Int64
	loader := types.LoaderFunc(func(_ context.Context, key string) (any, error) {
		loads.Add(1)
		return key, nil
	})

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(*goroutines)

	for i := 0; i < *goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < *opsPerG; j++ {
				key := fmt.Sprintf("key-%d", (id*7919+j)%(*preloadKeys*2))
				switch {
				case j%100 < *writeRatio:
					c.Set(key, j)
				case j%2 == 0:
					c.GetOrPopulate(ctx, key, loader)
				default:
					c.Get(key)
				}
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := *goroutines * *opsPerG
	removed := c.SweepExpired()

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Loader Calls     : %d\n", loads.Load())
	fmt.Printf("Entries          : %d (swept %d)\n", c.Size(), removed)
	fmt.Println("=========================================")
}
