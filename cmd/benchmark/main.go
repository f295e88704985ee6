package main

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"darkbook/domain"
	"darkbook/gateway"
	"darkbook/matching"
	"darkbook/orderbook"
)

// Benchmark drives the engine two ways:
//  1. a synchronous single-threaded loop against the bare book, which is the
//     engine's actual operating model and yields the per-order latency, and
//  2. the gateway path with concurrent producers, which measures end-to-end
//     throughput through the ring buffers.
//
// The synchronous pass is seeded, so its trade count and final state root
// are a reproducible fingerprint: run it twice, diff the roots.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	runID := uuid.New().String()
	logger.Info("benchmark starting", zap.String("run_id", runID))

	syncBenchmark(logger)
	gatewayBenchmark(logger)
}

func syncBenchmark(logger *zap.Logger) {
	const ops = 2_000_000
	const seed = 42

	rng := rand.New(rand.NewSource(seed))
	book := orderbook.New(1 << 21)

	start := time.Now()
	var trades uint64
	for i := 0; i < ops; i++ {
		side := domain.SideBuy
		if rng.Intn(2) == 0 {
			side = domain.SideSell
		}
		price := uint64(5_000_000_000_000 + int64(rng.Intn(400)-200)*100_000_000)
		qty := uint64(rng.Intn(5)+1) * 50_000_000
		order := domain.NewLimitOrder(uint64(rng.Intn(1000)+1), side, price, qty, 0)

		res, err := matching.MatchOrder(book, order, uint64(i))
		if err != nil {
			logger.Fatal("match failed", zap.Int("op", i), zap.Error(err))
		}
		trades += uint64(len(res.Trades))
	}
	elapsed := time.Since(start)
	root := book.StateRoot()

	logger.Info("synchronous pass complete",
		zap.Int("orders", ops),
		zap.Uint64("trades", trades),
		zap.Duration("elapsed", elapsed),
		zap.Float64("orders_per_sec", float64(ops)/elapsed.Seconds()),
		zap.Float64("ns_per_order", float64(elapsed.Nanoseconds())/float64(ops)),
		zap.Int("resting_orders", book.OrderCount()),
		zap.String("state_root", hex.EncodeToString(root[:])))
}

func gatewayBenchmark(logger *zap.Logger) {
	testDuration := 5 * time.Second
	numCPU := runtime.NumCPU()
	numWorkers := numCPU - 2 // one core for the matching thread, one for the runtime
	if numWorkers < 1 {
		numWorkers = 1
	}

	g := gateway.New(gateway.DefaultConfig(), logger)
	g.Start()

	var (
		orderCount atomic.Int64
		tradeCount atomic.Int64
	)

	// Drain trades off the ring.
	go func() {
		consumer := g.Trades()
		for {
			if _, ok := consumer.TryConsume(); ok {
				tradeCount.Add(1)
			} else {
				runtime.Gosched()
			}
		}
	}()

	logger.Info("gateway pass starting",
		zap.Int("cpus", numCPU),
		zap.Int("producers", numWorkers),
		zap.Duration("duration", testDuration))

	startTime := time.Now()
	stopChan := make(chan struct{})

	for w := 0; w < numWorkers; w++ {
		go func(workerID int) {
			seq := 0
			for {
				select {
				case <-stopChan:
					return
				default:
					// Alternate sides with overlapping prices so flows cross.
					side := domain.SideBuy
					if seq%2 == 1 {
						side = domain.SideSell
					}
					price := uint64(5_000_000_000_000 + int64(seq%200)*100_000_000)
					order := domain.NewLimitOrder(uint64(workerID+1), side, price, 100_000_000, 0)
					g.Submit(order, uint64(seq))
					orderCount.Add(1)
					seq++
				}
			}
		}(w)
	}

	time.Sleep(testDuration)
	close(stopChan)
	time.Sleep(500 * time.Millisecond)

	elapsed := time.Since(startTime)
	totalOrders := orderCount.Load()
	totalTrades := tradeCount.Load()

	logger.Info("gateway pass complete",
		zap.Int64("orders", totalOrders),
		zap.Int64("trades", totalTrades),
		zap.Float64("orders_per_sec", float64(totalOrders)/elapsed.Seconds()),
		zap.Float64("trades_per_sec", float64(totalTrades)/elapsed.Seconds()),
		zap.Float64("match_rate_pct", 100*float64(totalTrades)/float64(totalOrders)))

	book := g.Book()
	if bid, ok := book.BestBid(); ok {
		fmt.Printf("best bid: %d\n", bid)
	}
	if ask, ok := book.BestAsk(); ok {
		fmt.Printf("best ask: %d\n", ask)
	}
	for i, level := range book.Levels(domain.SideBuy, 5) {
		fmt.Printf("bid %d: price=%d quantity=%d orders=%d\n", i+1, level.Price, level.Quantity, level.Orders)
	}
	for i, level := range book.Levels(domain.SideSell, 5) {
		fmt.Printf("ask %d: price=%d quantity=%d orders=%d\n", i+1, level.Price, level.Quantity, level.Orders)
	}
}
