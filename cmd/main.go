package main

import (
	"context"
	"fmt"
	"os"
	"time"

	cache "github.com/krisalay/recency-cache"
	"github.com/krisalay/recency-cache/engine"
	"github.com/krisalay/recency-cache/types"
	"github.com/lightningnetwork/lnd/clock"
	"go.uber.org/zap"
)

// ================= BACKING STORE =================

type InMemoryStore struct {
	data map[string]int
}

func (s *InMemoryStore) Read(_ context.Context, key string) (int, bool, error) {
	v, ok := s.data[key]
	fmt.Printf("STORE  → read %s (found=%v)\n", key, ok)
	return v, ok, nil
}

// ================= METRICS =================

type Metrics struct {
	hits      int
	misses    int
	evictions int
}

func (m *Metrics) Hit()      { m.hits++ }
func (m *Metrics) Miss()     { m.misses++ }
func (m *Metrics) Eviction() { m.evictions++ }

func (m *Metrics) Print() {
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS      : %d\n", m.hits)
	fmt.Printf("MISSES    : %d\n", m.misses)
	fmt.Printf("EVICTIONS : %d\n", m.evictions)
}

var _ types.Metrics = (*Metrics)(nil)

// ================= MAIN =================

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Each step advances the clock by one second so timestamps never tie.
	clk := clock.NewTestClock(time.Unix(0, 0))
	tick := func() { clk.SetTime(clk.Now().Add(time.Second)) }

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("EVICTION POLICY : LRU (min-heap on last access)")
	fmt.Println("ORDERED INDEX   : binary search tree")

	metrics := &Metrics{}

	// ====================================================
	fmt.Println("\n==================== A) TOUCH PROTECTS A KEY ====================")
	fmt.Println("CAPACITY        : 2 keys")

	a, err := cache.New[string, int](2,
		cache.WithClock(clk), cache.WithLogger(logger), cache.WithMetrics(metrics))
	if err != nil {
		return err
	}

	a.Store("A", 1)
	tick()
	a.Store("B", 2)
	tick()
	v, ok := a.LookUp("A")
	fmt.Printf("CACHE  → LOOKUP A = %v (hit=%v)\n", v, ok)
	tick()
	a.Store("C", 3)
	fmt.Println("CACHE  → STORE C, cache now holds", a.Keys())

	// ====================================================
	fmt.Println("\n==================== B) CAPACITY ONE ====================")

	b, err := cache.New[string, int](1,
		cache.WithClock(clk), cache.WithLogger(logger), cache.WithMetrics(metrics))
	if err != nil {
		return err
	}

	b.Store("X", 10)
	tick()
	_, ok = b.LookUp("Y")
	fmt.Printf("CACHE  → LOOKUP Y (hit=%v)\n", ok)
	b.Store("Y", 20)
	fmt.Println("CACHE  → STORE Y, cache now holds", b.Keys())
	_, ok = b.LookUp("X")
	fmt.Printf("CACHE  → LOOKUP X (hit=%v)\n", ok)

	// ====================================================
	fmt.Println("\n==================== READ-THROUGH ====================")

	store := &InMemoryStore{data: map[string]int{"X": 10, "Y": 20}}
	rt := engine.NewReadThrough[int](b, store, logger)

	for _, key := range []string{"X", "X", "Y", "missing"} {
		tick()
		v, found, err := rt.Get(ctx, key)
		if err != nil {
			return err
		}
		fmt.Printf("ENGINE → GET %s = %v (found=%v)\n", key, v, found)
	}

	fmt.Printf("\nLOOKUPS   : %d\n", b.NumberOfLookups())
	fmt.Printf("HIT RATIO : %.2f\n", b.HitRatio())
	metrics.Print()
	return nil
}
