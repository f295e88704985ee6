package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"time"

	"darkbook/domain"
	"darkbook/matching"
	"darkbook/orderbook"
)

// Profiles the hot path: the synchronous match loop against a single book.
func main() {
	cpuFile, err := os.Create("cpu.prof")
	if err != nil {
		panic(err)
	}
	defer cpuFile.Close()

	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		panic(err)
	}
	defer pprof.StopCPUProfile()

	fmt.Println("profiling matching hot path, writing cpu.prof")

	const ops = 5_000_000
	rng := rand.New(rand.NewSource(1))
	book := orderbook.New(1 << 21)

	start := time.Now()
	var trades uint64
	for i := 0; i < ops; i++ {
		side := domain.SideBuy
		if rng.Intn(2) == 0 {
			side = domain.SideSell
		}
		price := uint64(5_000_000_000_000 + int64(rng.Intn(400)-200)*100_000_000)
		order := domain.NewLimitOrder(uint64(rng.Intn(1000)+1), side, price, 100_000_000, 0)
		res, err := matching.MatchOrder(book, order, uint64(i))
		if err != nil {
			panic(err)
		}
		trades += uint64(len(res.Trades))
	}
	elapsed := time.Since(start)

	fmt.Printf("orders: %d\n", ops)
	fmt.Printf("trades: %d\n", trades)
	fmt.Printf("orders/sec: %.0f\n", float64(ops)/elapsed.Seconds())
	fmt.Printf("ns/order: %.1f\n", float64(elapsed.Nanoseconds())/float64(ops))

	fmt.Println("\nanalyze with:")
	fmt.Println("  go tool pprof -http=:8080 cpu.prof")
}
