// Package gateway serializes access to one order book.
//
// The core engine is exclusive-access by design: the pool, the price trees
// and the ID index form one coupled invariant set with no interior locking.
// The gateway is the required "single consumer of an incoming-order queue"
// in front of it - any number of producer threads publish commands into a
// ring buffer, one goroutine owns the book and drives the synchronous
// matching functions, trades stream out through a second ring buffer.
//
// Timestamps ride on every submit and commit command; the gateway never reads a clock on
// behalf of the engine, so replaying the same command sequence reproduces
// the same trades and the same state roots.
package gateway

import (
	"runtime"

	"go.uber.org/zap"

	"darkbook/domain"
	"darkbook/matching"
	"darkbook/orderbook"
)

// CommandKind tags one gateway command.
type CommandKind uint8

const (
	// CommandSubmit matches an incoming order and rests any residual.
	CommandSubmit CommandKind = iota
	// CommandCancel removes a resting order by ID.
	CommandCancel
	// CommandCommit closes the current batch: state root, receipt.
	CommandCommit
	// commandStop shuts the matching goroutine down after draining.
	commandStop
)

// Command is one unit of work for the matching goroutine. Value type: a
// publish copies it into the ring, no allocation, no sharing.
type Command struct {
	Kind      CommandKind
	Order     domain.Order // Submit
	CancelID  uint64       // Cancel
	Timestamp uint64       // caller-supplied scaled milliseconds
}

// Config sizes the gateway at construction; nothing is tunable afterwards.
type Config struct {
	// BookCapacity is the pool size - the peak number of resting orders.
	BookCapacity int
	// CommandBuffer / TradeBuffer bound the ingress and egress rings.
	CommandBuffer int
	TradeBuffer   int
	// CommandBatch caps how many commands the matching loop drains from the
	// ring per lock acquisition. Zero means DefaultConfig's value.
	CommandBatch int
	// ReceiptBuffer bounds the receipt channel; receipts beyond it are
	// dropped with a warning rather than stall matching.
	ReceiptBuffer int
}

// DefaultConfig returns the sizing used by the binaries.
func DefaultConfig() Config {
	return Config{
		BookCapacity:  1 << 20,
		CommandBuffer: 1 << 16,
		TradeBuffer:   1 << 16,
		CommandBatch:  128,
		ReceiptBuffer: 64,
	}
}

// Gateway owns a Book and runs the matching loop.
type Gateway struct {
	book      *orderbook.Book
	commands  *Ring[Command]
	trades    *Ring[domain.Trade]
	receipts  chan domain.ExecutionReceipt
	batchSize int
	logger    *zap.Logger
	metrics   *gatewayMetrics
	done      chan struct{}

	// batch accounting, touched only by the matching goroutine
	batchID         uint64
	ordersProcessed uint64
	tradesExecuted  uint64
}

// New creates a gateway around a fresh book.
func New(cfg Config, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CommandBatch < 1 {
		cfg.CommandBatch = DefaultConfig().CommandBatch
	}
	return &Gateway{
		book:      orderbook.New(cfg.BookCapacity),
		commands:  NewRing[Command](cfg.CommandBuffer),
		trades:    NewRing[domain.Trade](cfg.TradeBuffer),
		receipts:  make(chan domain.ExecutionReceipt, cfg.ReceiptBuffer),
		batchSize: cfg.CommandBatch,
		logger:    logger,
		metrics:   newGatewayMetrics(),
		done:      make(chan struct{}),
	}
}

// Start launches the matching loop in a dedicated goroutine. The goroutine
// is locked to an OS thread to reduce context switches and keep the book's
// working set cache-resident.
func (g *Gateway) Start() {
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(g.done)

		batch := make([]Command, g.batchSize)
		for {
			n := g.commands.ConsumeBatch(batch)
			for i := 0; i < n; i++ {
				cmd := batch[i]
				switch cmd.Kind {
				case CommandSubmit:
					g.handleSubmit(cmd)
				case CommandCancel:
					g.handleCancel(cmd)
				case CommandCommit:
					g.handleCommit(cmd)
				case commandStop:
					return
				}
			}
		}
	}()
}

// Submit publishes an order for matching (non-blocking unless the ring is
// full). The timestamp is stamped onto the order and its trades.
func (g *Gateway) Submit(order domain.Order, timestamp uint64) {
	g.commands.Publish(Command{Kind: CommandSubmit, Order: order, Timestamp: timestamp})
}

// Cancel publishes a cancel request for a resting order ID.
func (g *Gateway) Cancel(orderID uint64) {
	g.commands.Publish(Command{Kind: CommandCancel, CancelID: orderID})
}

// Commit closes the current batch: every command published before it is
// executed first, then a receipt with the resulting state root is emitted.
func (g *Gateway) Commit(timestamp uint64) {
	g.commands.Publish(Command{Kind: CommandCommit, Timestamp: timestamp})
}

// Stop drains previously published commands and stops the matching loop.
func (g *Gateway) Stop() {
	g.commands.Publish(Command{Kind: commandStop})
	<-g.done
}

// Trades returns the consumer side of the trade stream. One consumer only.
func (g *Gateway) Trades() *Ring[domain.Trade] {
	return g.trades
}

// Receipts returns the stream of batch receipts.
func (g *Gateway) Receipts() <-chan domain.ExecutionReceipt {
	return g.receipts
}

// Book exposes the book for observers (best bid/ask, depth). Safe only when
// the matching loop is idle; production readers should consume the trade and
// receipt streams instead.
func (g *Gateway) Book() *orderbook.Book {
	return g.book
}

func (g *Gateway) handleSubmit(cmd Command) {
	res, err := matching.MatchOrder(g.book, cmd.Order, cmd.Timestamp)
	if err != nil {
		g.metrics.ordersRejected.Inc()
		g.logger.Warn("order rejected",
			zap.Uint64("user_id", cmd.Order.UserID),
			zap.String("side", cmd.Order.Side.String()),
			zap.Uint64("price", cmd.Order.Price),
			zap.Uint64("quantity", cmd.Order.Quantity),
			zap.Error(err))
		return
	}
	g.ordersProcessed++
	g.tradesExecuted += uint64(len(res.Trades))
	g.metrics.ordersProcessed.Inc()
	g.metrics.tradesExecuted.Add(float64(len(res.Trades)))
	for i := range res.Trades {
		g.trades.Publish(res.Trades[i])
	}
}

func (g *Gateway) handleCancel(cmd Command) {
	if _, err := g.book.CancelOrder(cmd.CancelID); err != nil {
		g.metrics.cancelMisses.Inc()
		g.logger.Warn("cancel miss", zap.Uint64("order_id", cmd.CancelID))
		return
	}
	g.metrics.cancels.Inc()
}

func (g *Gateway) handleCommit(cmd Command) {
	g.batchID++
	receipt := domain.ExecutionReceipt{
		BatchID:         g.batchID,
		OrdersProcessed: g.ordersProcessed,
		TradesExecuted:  g.tradesExecuted,
		StateRoot:       g.book.StateRoot(),
		Timestamp:       cmd.Timestamp,
	}
	g.ordersProcessed = 0
	g.tradesExecuted = 0
	g.metrics.batchesCommitted.Inc()

	select {
	case g.receipts <- receipt:
	default:
		g.logger.Warn("receipt channel full, dropping receipt",
			zap.Uint64("batch_id", receipt.BatchID))
	}
}
