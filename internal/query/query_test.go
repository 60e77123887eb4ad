package query

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() []chain.Transaction {
	big1 := new(big.Int)
	big1.SetString("1000000000000000000", 10)
	huge := new(big.Int)
	huge.SetString("123456789012345678901234567890", 10)
	return []chain.Transaction{
		{Hash: "0xa", From: "0xsender", To: "0xme", Direction: chain.Incoming, ValueWei: big1, ValueEth: 1, GasPriceWei: big.NewInt(20e9), GasUsed: big.NewInt(21000), GasPriceGwei: 20, Timestamp: 1700000000},
		{Hash: "0xb", From: "0xme", To: "0xother", Direction: chain.Outgoing, ValueWei: huge, ValueEth: 1.2345678901234568e11, GasPriceWei: big.NewInt(5e9), GasUsed: big.NewInt(50000), GasPriceGwei: 5, Timestamp: 1700000100},
		{Hash: "0xc", From: "0xsender", To: "0xme", Direction: chain.Incoming, ValueWei: nil, Timestamp: 1700000200},
	}
}

func hashes(txs []chain.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Hash
	}
	return out
}

func TestCompileRejectsBadExpression(t *testing.T) {
	_, err := Compile(".direction ==")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing jq filter")

	_, err = Compile("$undefined")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compiling jq filter")
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	f, err := Compile()
	require.NoError(t, err)
	assert.True(t, f.Empty())

	out, err := f.Apply(sample())
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name  string
		exprs []string
		want  []string
	}{
		{"direction", []string{`.direction == "INCOMING"`}, []string{"0xa", "0xc"}},
		{"all must hold", []string{`.direction == "INCOMING"`, `.value_eth >= 1`}, []string{"0xa"}},
		{"big wei compare", []string{`.value_wei > 1000000000000000000`}, []string{"0xb"}},
		{"gas fee", []string{`.gas_fee_wei == 420000000000000`}, []string{"0xa"}},
		{"null result rejects", []string{`.missing`}, []string{}},
		{"non-bool value accepts", []string{`.hash`}, []string{"0xa", "0xb", "0xc"}},
		{"no output rejects", []string{`empty`}, []string{}},
		{"string functions", []string{`.to | startswith("0xo")`}, []string{"0xb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.exprs...)
			require.NoError(t, err)
			out, err := f.Apply(sample())
			require.NoError(t, err)
			assert.Equal(t, tt.want, hashes(out))
		})
	}
}

func TestMatchRuntimeErrorIsReported(t *testing.T) {
	f, err := Compile(`.hash + 1`)
	require.NoError(t, err)
	_, err = f.Match(sample()[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".hash + 1")
}

func TestDocumentShape(t *testing.T) {
	doc := Document(sample()[0])
	assert.Equal(t, "0xa", doc["hash"])
	assert.Equal(t, "INCOMING", doc["direction"])
	assert.Equal(t, "2023-11-14T22:13:20Z", doc["time"])
	assert.Equal(t, 0, big.NewInt(420000000000000).Cmp(doc["gas_fee_wei"].(*big.Int)))

	empty := Document(sample()[2])
	assert.Equal(t, 0, empty["value_wei"].(*big.Int).Sign())
}
