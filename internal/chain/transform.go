package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// RawRecord is one transaction object as returned by the explorer API.
// Values are strings or json.Number depending on the explorer.
type RawRecord map[string]any

// RawRecords is the decoded `result` array of a txlist call.
type RawRecords []RawRecord

// RequiredFields lists the keys every raw record must carry. A single record
// missing one of them invalidates the whole batch.
var RequiredFields = []string{"timeStamp", "hash", "from", "to", "value", "gasPrice", "gasUsed"}

// DecodeRecords decodes an explorer `result` payload. Anything that is not a
// JSON array of objects yields nil.
func DecodeRecords(payload json.RawMessage) RawRecords {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var recs RawRecords
	if err := dec.Decode(&recs); err != nil {
		return nil
	}
	return recs
}

// HasRequiredFields reports whether every record carries every required field.
// It returns the first missing field name when it does not.
func HasRequiredFields(recs RawRecords) (string, bool) {
	for _, r := range recs {
		if r == nil {
			return RequiredFields[0], false
		}
		for _, f := range RequiredFields {
			if _, ok := r[f]; !ok {
				return f, false
			}
		}
	}
	return "", true
}

// Transform normalizes raw explorer records into transactions for the
// watched address. It fails closed: an empty input or a batch where any
// record lacks a required field produces an empty result. Individual numeric
// fields that fail to parse become zero. Input order is preserved.
func Transform(recs RawRecords, watched string) []Transaction {
	if len(recs) == 0 {
		return []Transaction{}
	}
	if _, ok := HasRequiredFields(recs); !ok {
		return []Transaction{}
	}

	txs := make([]Transaction, 0, len(recs))
	for _, r := range recs {
		value := coerceInt(r["value"])
		gasPrice := coerceInt(r["gasPrice"])
		gasUsed := coerceInt(r["gasUsed"])

		tx := Transaction{
			Hash:        coerceString(r["hash"]),
			Timestamp:   coerceInt(r["timeStamp"]).Int64(),
			From:        coerceString(r["from"]),
			To:          coerceString(r["to"]),
			ValueWei:    value,
			GasPriceWei: gasPrice,
			GasUsed:     gasUsed,
		}
		tx.Direction = DirectionFor(tx.To, watched)
		tx.ValueEth = WeiToEth(value)
		tx.GasPriceGwei = WeiToGwei(gasPrice)
		tx.GasFeeEth = WeiToEth(tx.GasFeeWei())
		txs = append(txs, tx)
	}
	return txs
}

// coerceInt parses a decimal integer from a string or JSON number. Values with
// a fractional part are truncated; anything unparseable is zero.
func coerceInt(v any) *big.Int {
	var s string
	switch x := v.(type) {
	case string:
		s = strings.TrimSpace(x)
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return big.NewInt(int64(x))
	case int64:
		return big.NewInt(x)
	default:
		return new(big.Int)
	}
	if s == "" {
		return new(big.Int)
	}
	if n, ok := new(big.Int).SetString(s, 10); ok {
		return n
	}
	f, ok := new(big.Float).SetString(s)
	if !ok || f.IsInf() {
		return new(big.Int)
	}
	n, _ := f.Int(nil)
	return n
}

func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
