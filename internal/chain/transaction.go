package chain

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/params"
)

// Direction classifies a transaction relative to the watched address.
type Direction string

const (
	Incoming Direction = "INCOMING"
	Outgoing Direction = "OUTGOING"
)

// Transaction is one normalized transfer involving the watched address.
// Wei amounts are kept as *big.Int; the float fields are derived for display
// and aggregation only.
type Transaction struct {
	Hash        string
	Timestamp   int64 // seconds since epoch
	From        string
	To          string
	ValueWei    *big.Int
	GasPriceWei *big.Int
	GasUsed     *big.Int
	Direction   Direction

	ValueEth     float64
	GasPriceGwei float64
	GasFeeEth    float64
}

// Time returns the block timestamp in UTC.
func (t Transaction) Time() time.Time {
	return time.Unix(t.Timestamp, 0).UTC()
}

// Day returns the UTC calendar day the transaction belongs to.
func (t Transaction) Day() time.Time {
	ts := t.Time()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// GasFeeWei returns gasPrice * gasUsed without loss of precision.
func (t Transaction) GasFeeWei() *big.Int {
	if t.GasPriceWei == nil || t.GasUsed == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(t.GasPriceWei, t.GasUsed)
}

// Counterparty is the other side of the transfer: the sender for incoming
// transactions, the recipient otherwise.
func (t Transaction) Counterparty() string {
	if t.Direction == Incoming {
		return t.From
	}
	return t.To
}

// DirectionFor classifies a transfer by comparing its recipient to the
// watched address, ignoring case.
func DirectionFor(to, watched string) Direction {
	if strings.EqualFold(to, watched) {
		return Incoming
	}
	return Outgoing
}

// Hashes returns the set of transaction hashes in txs.
func Hashes(txs []Transaction) map[string]struct{} {
	set := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		set[tx.Hash] = struct{}{}
	}
	return set
}

var (
	weiPerEther = new(big.Float).SetFloat64(params.Ether)
	weiPerGwei  = new(big.Float).SetFloat64(params.GWei)
)

// WeiToEth converts a wei amount to ether as a float64.
func WeiToEth(wei *big.Int) float64 {
	return divFloat(wei, weiPerEther)
}

// WeiToGwei converts a wei amount to gwei as a float64.
func WeiToGwei(wei *big.Int) float64 {
	return divFloat(wei, weiPerGwei)
}

// FormatEth renders a wei amount as an ether string with the given number of
// decimals, computed on the exact value.
func FormatEth(wei *big.Int, decimals int) string {
	if wei == nil {
		wei = new(big.Int)
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, weiPerEther)
	return f.Text('f', decimals)
}

func divFloat(x *big.Int, unit *big.Float) float64 {
	if x == nil {
		return 0
	}
	f := new(big.Float).SetInt(x)
	f.Quo(f, unit)
	v, _ := f.Float64()
	return v
}
