package rewards

import "fmt"

// Caip10 renders an account in CAIP-10 form for the rewards API.
func Caip10(chainID int64, address string) string {
	return fmt.Sprintf("eip155:%d:%s", chainID, address)
}

// Caip19Native renders the chain's native asset (slip44:60) in CAIP-19 form.
func Caip19Native(chainID int64) string {
	return fmt.Sprintf("eip155:%d/slip44:60", chainID)
}

// Caip19Erc20 renders an ERC-20 asset in CAIP-19 form.
func Caip19Erc20(chainID int64, token string) string {
	return fmt.Sprintf("eip155:%d/erc20:%s", chainID, token)
}
