package types

// Direction identifies which leg of the token pair a swap moves.
type Direction string

const (
	// DirectionEthToUsdc swaps the volatile asset (WETH) into the stable asset (USDC).
	DirectionEthToUsdc Direction = "ETH_TO_USDC"
	// DirectionUsdcToEth swaps the stable asset back into the volatile asset.
	DirectionUsdcToEth Direction = "USDC_TO_ETH"
)

// Wallet is one signing account the cycle loop operates on.
type Wallet struct {
	Address    string `json:"address"`
	PrivateKey string `json:"privateKey"`
}

// SwapRequest describes a single swap leg. It is built from the balance
// observed immediately before the attempt and never mutated afterwards.
type SwapRequest struct {
	Direction      Direction
	SourceToken    string
	DestToken      string
	SourceAmount   string // human units, the exact observed balance
	SourceDecimals int
	Slippage       float64
	ResetApproval  bool
	GasIncluded    bool
}
