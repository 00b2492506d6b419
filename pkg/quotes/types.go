package quotes

import (
	"math/big"
	"strings"
)

// Step titles used by the aggregator. Matching is case-insensitive.
const (
	StepApproval = "approval"
	StepTrade    = "trade"
)

// TxData is the raw transaction payload of a quote step.
type TxData struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// Step is one on-chain transaction required to execute a quote.
type Step struct {
	Title  string `json:"title"`
	TxData TxData `json:"txdata"`
}

// Quote is one candidate execution plan returned by the aggregator.
type Quote struct {
	Detail QuoteDetail `json:"quote"`
	Trade  []Step      `json:"trade"`
}

// QuoteDetail carries the priced side of a quote.
type QuoteDetail struct {
	DestTokenAmount string `json:"destTokenAmount"`
}

// DestAmount returns the quoted destination amount as an integer.
// Missing or unparseable values compare as zero.
func (q *Quote) DestAmount() *big.Int {
	amount, ok := new(big.Int).SetString(q.Detail.DestTokenAmount, 10)
	if !ok {
		return new(big.Int)
	}
	return amount
}

// FindStep returns the first step whose title matches, ignoring case,
// or nil when the quote has no such step.
func (q *Quote) FindStep(title string) *Step {
	for i := range q.Trade {
		if strings.EqualFold(q.Trade[i].Title, title) {
			return &q.Trade[i]
		}
	}
	return nil
}

// TradeStep returns the swap-executing step of the quote, if present.
func (q *Quote) TradeStep() *Step { return q.FindStep(StepTrade) }

// ApprovalStep returns the token-approval step of the quote, if present.
func (q *Quote) ApprovalStep() *Step { return q.FindStep(StepApproval) }
