// Package query filters transactions with jq expressions.
package query

import (
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/itchyny/gojq"
)

// Filter is a set of compiled jq expressions. A transaction matches when
// every expression's first result is truthy.
type Filter struct {
	exprs []string
	codes []*gojq.Code
}

// Compile parses and compiles each expression. An empty list yields a filter
// that matches everything.
func Compile(exprs ...string) (*Filter, error) {
	f := &Filter{exprs: exprs, codes: make([]*gojq.Code, len(exprs))}
	for i, expr := range exprs {
		q, err := gojq.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("parsing jq filter %q: %w", expr, err)
		}
		f.codes[i], err = gojq.Compile(q)
		if err != nil {
			return nil, fmt.Errorf("compiling jq filter %q: %w", expr, err)
		}
	}
	return f, nil
}

// Empty reports whether the filter has no expressions.
func (f *Filter) Empty() bool { return f == nil || len(f.codes) == 0 }

// Match runs every expression against the document form of tx. An
// expression that yields no value, an error, false or null rejects tx.
func (f *Filter) Match(tx chain.Transaction) (bool, error) {
	if f.Empty() {
		return true, nil
	}
	doc := Document(tx)
	for i, code := range f.codes {
		iter := code.Run(doc)
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			return false, fmt.Errorf("jq filter %q: %w", f.exprs[i], err)
		}
		if !truthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// Apply returns the transactions in txs that match, preserving order.
func (f *Filter) Apply(txs []chain.Transaction) ([]chain.Transaction, error) {
	if f.Empty() {
		return txs, nil
	}
	out := make([]chain.Transaction, 0, len(txs))
	for _, tx := range txs {
		ok, err := f.Match(tx)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Document is the JSON-shaped view of a transaction that expressions and
// JSON output see. Wei amounts stay arbitrary precision.
func Document(tx chain.Transaction) map[string]any {
	return map[string]any{
		"hash":           tx.Hash,
		"timestamp":      int(tx.Timestamp),
		"time":           tx.Time().Format("2006-01-02T15:04:05Z"),
		"from":           tx.From,
		"to":             tx.To,
		"direction":      string(tx.Direction),
		"value_wei":      nonNil(tx.ValueWei),
		"value_eth":      tx.ValueEth,
		"gas_price_wei":  nonNil(tx.GasPriceWei),
		"gas_price_gwei": tx.GasPriceGwei,
		"gas_used":       nonNil(tx.GasUsed),
		"gas_fee_wei":    tx.GasFeeWei(),
		"gas_fee_eth":    tx.GasFeeEth,
	}
}

func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	default:
		return true
	}
}
