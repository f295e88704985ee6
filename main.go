package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"darkbook/domain"
	"darkbook/fixed"
	"darkbook/gateway"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Initialize the gateway around a fresh book.
	g := gateway.New(gateway.DefaultConfig(), logger)
	g.Start()
	defer g.Stop()

	// Expose gateway counters for scraping.
	registry := prometheus.NewRegistry()
	registry.MustRegister(g.Metrics())
	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(":2112", nil); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("matching gateway started")

	// Example flow: rest one ask, partially fill it with a smaller bid, commit the
	// batch. Timestamps are supplied here - the engine never reads a clock.
	now := uint64(time.Now().UnixMilli())

	price, _ := fixed.ToScaled("50000")
	oneCoin, _ := fixed.ToScaled("1")
	halfCoin, _ := fixed.ToScaled("0.5")

	g.Submit(domain.NewLimitOrder(1, domain.SideSell, price, oneCoin, 0), now)
	logger.Info("submitted sell", zap.String("price", fixed.FromScaled(price)), zap.String("quantity", fixed.FromScaled(oneCoin)))

	g.Submit(domain.NewLimitOrder(2, domain.SideBuy, price, halfCoin, 0), now+1)
	logger.Info("submitted buy", zap.String("price", fixed.FromScaled(price)), zap.String("quantity", fixed.FromScaled(halfCoin)))

	g.Commit(now + 2)

	// Stream trades and receipts.
	go func() {
		consumer := g.Trades()
		for {
			trade, ok := consumer.TryConsume()
			if !ok {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			logger.Info("trade executed",
				zap.Uint64("trade_id", trade.ID),
				zap.Uint64("maker_order_id", trade.MakerOrderID),
				zap.Uint64("maker_user_id", trade.MakerUserID),
				zap.Uint64("taker_user_id", trade.TakerUserID),
				zap.String("price", fixed.FromScaled(trade.Price)),
				zap.String("quantity", fixed.FromScaled(trade.Quantity)))
		}
	}()

	for receipt := range g.Receipts() {
		logger.Info("batch committed",
			zap.Uint64("batch_id", receipt.BatchID),
			zap.Uint64("orders_processed", receipt.OrdersProcessed),
			zap.Uint64("trades_executed", receipt.TradesExecuted),
			zap.Binary("state_root", receipt.StateRoot[:]))
	}
}
