package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkbook/domain"
	"darkbook/orderbook"
)

const (
	px48000 = 4_800_000_000_000
	px49000 = 4_900_000_000_000
	px50000 = 5_000_000_000_000
	px51000 = 5_100_000_000_000
	px52000 = 5_200_000_000_000
	qty1    = 100_000_000
	qty2    = 200_000_000
	ts      = 1_700_000_000_000
)

func seed(t *testing.T, b *orderbook.Book, o domain.Order) uint64 {
	t.Helper()
	id, err := b.AddOrder(o)
	require.NoError(t, err)
	return id
}

func TestMatchEmptyBookRests(t *testing.T) {
	b := orderbook.New(16)

	res, err := MatchOrder(b, domain.NewLimitOrder(1, domain.SideBuy, px50000, qty1, 0), ts)
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	assert.False(t, res.FullyFilled)
	assert.Equal(t, uint64(qty1), res.Remaining)
	assert.Equal(t, uint64(1), res.RestingID)

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, uint64(px50000), bid)
	assert.Equal(t, 1, b.OrderCount())

	// The resting order carries the injected timestamp.
	rested, ok := b.Order(1)
	require.True(t, ok)
	assert.Equal(t, uint64(ts), rested.Timestamp)
}

func TestMatchFullFillAtMakerPrice(t *testing.T) {
	b := orderbook.New(16)
	makerID := seed(t, b, domain.NewLimitOrder(10, domain.SideSell, px50000, qty1, ts))

	res, err := MatchOrder(b, domain.NewLimitOrder(20, domain.SideBuy, px50000, qty1, 0), ts+1)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.Equal(t, uint64(1), trade.ID)
	assert.Equal(t, makerID, trade.MakerOrderID)
	assert.Equal(t, uint64(0), trade.TakerOrderID) // taker never admitted
	assert.Equal(t, uint64(10), trade.MakerUserID)
	assert.Equal(t, uint64(20), trade.TakerUserID)
	assert.Equal(t, uint64(px50000), trade.Price)
	assert.Equal(t, uint64(qty1), trade.Quantity)
	assert.Equal(t, uint64(ts+1), trade.Timestamp)

	assert.True(t, res.FullyFilled)
	assert.Zero(t, res.Remaining)
	assert.Zero(t, res.RestingID)

	assert.Equal(t, 0, b.OrderCount())
	nextOrder, nextTrade := b.Counters()
	assert.Equal(t, uint64(2), nextOrder)
	assert.Equal(t, uint64(2), nextTrade)
}

func TestMatchPartialTakerResidualRests(t *testing.T) {
	b := orderbook.New(16)
	seed(t, b, domain.NewLimitOrder(10, domain.SideSell, px50000, qty1, ts))

	res, err := MatchOrder(b, domain.NewLimitOrder(20, domain.SideBuy, px50000, qty2, 0), ts+1)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, uint64(qty1), res.Trades[0].Quantity)
	assert.False(t, res.FullyFilled)
	assert.Equal(t, uint64(qty1), res.Remaining)
	assert.Equal(t, uint64(2), res.RestingID)

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, uint64(px50000), bid)
	assert.Equal(t, 1, b.OrderCount())

	// The residual rests with its unfilled quantity but original size.
	rested, ok := b.Order(2)
	require.True(t, ok)
	assert.Equal(t, uint64(qty2), rested.Quantity)
	assert.Equal(t, uint64(qty1), rested.Remaining)
}

func TestMatchPricePriority(t *testing.T) {
	b := orderbook.New(16)
	seed(t, b, domain.NewLimitOrder(1, domain.SideSell, px51000, qty1, ts))
	best := seed(t, b, domain.NewLimitOrder(2, domain.SideSell, px50000, qty1, ts))
	seed(t, b, domain.NewLimitOrder(3, domain.SideSell, px52000, qty1, ts))

	res, err := MatchOrder(b, domain.NewLimitOrder(20, domain.SideBuy, px52000, qty1, 0), ts+1)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	// Cheapest ask first, executed at the maker's price, not the taker's limit.
	assert.Equal(t, best, res.Trades[0].MakerOrderID)
	assert.Equal(t, uint64(px50000), res.Trades[0].Price)
	assert.True(t, res.FullyFilled)
	assert.Equal(t, 2, b.OrderCount())
}

func TestMatchTimePriorityWithinLevel(t *testing.T) {
	b := orderbook.New(16)
	first := seed(t, b, domain.NewLimitOrder(1, domain.SideBuy, px50000, qty1, ts))
	second := seed(t, b, domain.NewLimitOrder(2, domain.SideBuy, px50000, qty1, ts))

	res, err := MatchOrder(b, domain.NewLimitOrder(20, domain.SideSell, px50000, qty1, 0), ts+1)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.Equal(t, first, res.Trades[0].MakerOrderID)

	// The younger order at the level survives.
	_, stillThere := b.Order(second)
	assert.True(t, stillThere)
	assert.Equal(t, 1, b.OrderCount())
}

func TestMatchWalksMultipleLevelsAndMakers(t *testing.T) {
	b := orderbook.New(16)
	seed(t, b, domain.NewLimitOrder(1, domain.SideSell, px50000, qty1, ts))
	seed(t, b, domain.NewLimitOrder(2, domain.SideSell, px50000, qty1, ts))
	seed(t, b, domain.NewLimitOrder(3, domain.SideSell, px51000, qty1, ts))
	seed(t, b, domain.NewLimitOrder(4, domain.SideSell, px52000, qty1, ts))

	// Sweeps both 50k makers and the 51k maker; 52k is above the limit.
	res, err := MatchOrder(b, domain.NewLimitOrder(20, domain.SideBuy, px51000, 4*qty1, 0), ts+1)
	require.NoError(t, err)

	require.Len(t, res.Trades, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{
		res.Trades[0].MakerOrderID, res.Trades[1].MakerOrderID, res.Trades[2].MakerOrderID,
	})
	assert.Equal(t, uint64(px50000), res.Trades[0].Price)
	assert.Equal(t, uint64(px50000), res.Trades[1].Price)
	assert.Equal(t, uint64(px51000), res.Trades[2].Price)

	// Residual rests at the taker's limit; 52k ask is untouched.
	assert.Equal(t, uint64(qty1), res.Remaining)
	assert.Equal(t, uint64(5), res.RestingID)
	bid, _ := b.BestBid()
	assert.Equal(t, uint64(px51000), bid)
	ask, _ := b.BestAsk()
	assert.Equal(t, uint64(px52000), ask)

	// No crossed book at rest.
	assert.Less(t, bid, ask)

	// Trade IDs are monotone from 1.
	for i, tr := range res.Trades {
		assert.Equal(t, uint64(i+1), tr.ID)
	}
}

func TestMatchPartialMakerFill(t *testing.T) {
	b := orderbook.New(16)
	makerID := seed(t, b, domain.NewLimitOrder(1, domain.SideSell, px50000, qty2, ts))

	res, err := MatchOrder(b, domain.NewLimitOrder(20, domain.SideBuy, px50000, qty1, 0), ts+1)
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	assert.True(t, res.FullyFilled)

	// The maker keeps its slot with reduced remaining; aggregate follows.
	maker, ok := b.Order(makerID)
	require.True(t, ok)
	assert.Equal(t, uint64(qty1), maker.Remaining)
	assert.Equal(t, uint64(qty2), maker.Quantity)
	assert.Equal(t, uint64(qty1), b.Depth(px50000, domain.SideSell))
}

func TestMatchNoCrossRests(t *testing.T) {
	b := orderbook.New(16)
	seed(t, b, domain.NewLimitOrder(1, domain.SideSell, px51000, qty1, ts))

	// Buy limit below the best ask: no trade, full admission.
	res, err := MatchOrder(b, domain.NewLimitOrder(20, domain.SideBuy, px50000, qty1, 0), ts+1)
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Equal(t, uint64(2), res.RestingID)
	assert.Equal(t, 2, b.OrderCount())

	spread, ok := b.Spread()
	require.True(t, ok)
	assert.Equal(t, uint64(px51000-px50000), spread)
}

func TestMatchSellConsumesBidsDescending(t *testing.T) {
	b := orderbook.New(16)
	seed(t, b, domain.NewLimitOrder(1, domain.SideBuy, px48000, qty1, ts))
	high := seed(t, b, domain.NewLimitOrder(2, domain.SideBuy, px50000, qty1, ts))
	mid := seed(t, b, domain.NewLimitOrder(3, domain.SideBuy, px49000, qty1, ts))

	res, err := MatchOrder(b, domain.NewLimitOrder(20, domain.SideSell, px49000, qty2, 0), ts+1)
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, high, res.Trades[0].MakerOrderID)
	assert.Equal(t, uint64(px50000), res.Trades[0].Price)
	assert.Equal(t, mid, res.Trades[1].MakerOrderID)
	assert.Equal(t, uint64(px49000), res.Trades[1].Price)
	assert.True(t, res.FullyFilled)

	// The 48k bid does not cross a 49k sell.
	bid, _ := b.BestBid()
	assert.Equal(t, uint64(px48000), bid)
}

func TestMatchRejectsBadOrders(t *testing.T) {
	b := orderbook.New(16)
	seed(t, b, domain.NewLimitOrder(1, domain.SideSell, px50000, qty1, ts))
	rootBefore := b.StateRoot()

	cases := []domain.Order{
		domain.NewLimitOrder(1, domain.SideBuy, 0, qty1, 0),       // zero price
		domain.NewLimitOrder(1, domain.SideBuy, px50000, 0, 0),    // zero quantity
		domain.NewLimitOrder(1, domain.Side(7), px50000, qty1, 0), // bad side
	}
	withID := domain.NewLimitOrder(1, domain.SideBuy, px50000, qty1, 0)
	withID.ID = 3
	cases = append(cases, withID)
	partial := domain.NewLimitOrder(1, domain.SideBuy, px50000, qty1, 0)
	partial.Remaining = qty1 / 2
	cases = append(cases, partial)

	for i, o := range cases {
		_, err := MatchOrder(b, o, ts)
		assert.ErrorIs(t, err, orderbook.ErrBadOrder, "case %d", i)
	}

	// Rejection happens before any mutation.
	assert.Equal(t, rootBefore, b.StateRoot())
}

func TestMatchPoolFullRejectedUpFront(t *testing.T) {
	b := orderbook.New(1)
	seed(t, b, domain.NewLimitOrder(1, domain.SideSell, px51000, qty1, ts))
	rootBefore := b.StateRoot()

	// Book at capacity: even a crossing order is refused before the walk,
	// because the residual might need the slot the book cannot promise.
	_, err := MatchOrder(b, domain.NewLimitOrder(2, domain.SideBuy, px51000, qty1, 0), ts)
	assert.ErrorIs(t, err, orderbook.ErrPoolFull)
	assert.Equal(t, rootBefore, b.StateRoot())
}

func TestMatchTradeStreamDeterminism(t *testing.T) {
	run := func() ([]domain.Trade, [32]byte) {
		b := orderbook.New(64)
		var all []domain.Trade
		orders := []domain.Order{
			domain.NewLimitOrder(1, domain.SideSell, px51000, qty1, 0),
			domain.NewLimitOrder(2, domain.SideSell, px50000, qty2, 0),
			domain.NewLimitOrder(3, domain.SideBuy, px49000, qty1, 0),
			domain.NewLimitOrder(4, domain.SideBuy, px51000, qty2, 0),
			domain.NewLimitOrder(5, domain.SideSell, px48000, 2*qty2, 0),
		}
		for i, o := range orders {
			res, err := MatchOrder(b, o, uint64(ts+i))
			require.NoError(t, err)
			all = append(all, res.Trades...)
		}
		return all, b.StateRoot()
	}

	trades1, root1 := run()
	trades2, root2 := run()
	assert.Equal(t, trades1, trades2)
	assert.Equal(t, root1, root2)
}
