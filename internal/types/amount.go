package types

import "fmt"

// Amount is a quantity of some asset, denominated in the asset's smallest
// indivisible unit (e.g. drops for XRP).
type Amount struct {
	AssetCode string `json:"asset_code" bson:"asset_code"`
	Quantity  int64  `json:"quantity" bson:"quantity"`
}

func NewAmount(assetCode string, quantity int64) Amount {
	return Amount{AssetCode: assetCode, Quantity: quantity}
}

func (a Amount) Add(other Amount) (Amount, error) {
	if a.AssetCode != other.AssetCode {
		return Amount{}, fmt.Errorf("asset mismatch: %s != %s", a.AssetCode, other.AssetCode)
	}
	return Amount{AssetCode: a.AssetCode, Quantity: a.Quantity + other.Quantity}, nil
}

func (a Amount) GreaterOrEqual(other Amount) bool {
	return a.AssetCode == other.AssetCode && a.Quantity >= other.Quantity
}

func (a Amount) IsNegative() bool {
	return a.Quantity < 0
}

func (a Amount) String() string {
	return fmt.Sprintf("%d %s", a.Quantity, a.AssetCode)
}
