package quotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteWithAmount(amount string) Quote {
	return Quote{Detail: QuoteDetail{DestTokenAmount: amount}}
}

func TestPickBest_HighestWinsRegardlessOfOrder(t *testing.T) {
	a := quoteWithAmount("100")
	b := quoteWithAmount("200")

	best := PickBest([]Quote{a, b})
	require.NotNil(t, best)
	assert.Equal(t, "200", best.DestAmount().String())

	best = PickBest([]Quote{b, a})
	require.NotNil(t, best)
	assert.Equal(t, "200", best.DestAmount().String())
}

func TestPickBest_ArbitraryPrecision(t *testing.T) {
	// Values beyond float64's exact integer range must still compare correctly.
	low := quoteWithAmount("100000000000000000000000001")
	high := quoteWithAmount("100000000000000000000000002")

	best := PickBest([]Quote{low, high})
	require.NotNil(t, best)
	assert.Equal(t, high.Detail.DestTokenAmount, best.Detail.DestTokenAmount)
}

func TestPickBest_TieKeepsFirst(t *testing.T) {
	first := Quote{Detail: QuoteDetail{DestTokenAmount: "500"}, Trade: []Step{{Title: "trade", TxData: TxData{To: "0xfirst"}}}}
	second := Quote{Detail: QuoteDetail{DestTokenAmount: "500"}, Trade: []Step{{Title: "trade", TxData: TxData{To: "0xsecond"}}}}

	best := PickBest([]Quote{first, second})
	require.NotNil(t, best)
	assert.Equal(t, "0xfirst", best.TradeStep().TxData.To)
}

func TestPickBest_Empty(t *testing.T) {
	assert.Nil(t, PickBest(nil))
	assert.Nil(t, PickBest([]Quote{}))
}

func TestPickBest_UnparseableAmountComparesAsZero(t *testing.T) {
	junk := quoteWithAmount("")
	real := quoteWithAmount("1")

	best := PickBest([]Quote{junk, real})
	require.NotNil(t, best)
	assert.Equal(t, "1", best.DestAmount().String())
}

func TestFindStep_CaseInsensitive(t *testing.T) {
	q := Quote{Trade: []Step{{Title: "APPROVAL"}, {Title: "Trade"}}}
	assert.NotNil(t, q.ApprovalStep())
	assert.NotNil(t, q.TradeStep())
	assert.Nil(t, q.FindStep("bridge"))
}
