package summary

import (
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const me = "0xMe"

func at(day int, hour int) int64 {
	return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC).Unix()
}

func tx(hash, from, to string, eth float64, gwei float64, ts int64) chain.Transaction {
	t := chain.Transaction{
		Hash:         hash,
		Timestamp:    ts,
		From:         from,
		To:           to,
		ValueWei:     big.NewInt(0),
		GasPriceWei:  big.NewInt(0),
		GasUsed:      big.NewInt(21000),
		Direction:    chain.DirectionFor(to, me),
		ValueEth:     eth,
		GasPriceGwei: gwei,
		GasFeeEth:    gwei * 21000 / 1e9,
	}
	return t
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil)
	assert.Zero(t, s.Total)
	assert.NotNil(t, s.TopSenders)
	assert.NotNil(t, s.DailyVolume)
	assert.Empty(t, s.DailyGas)
	assert.True(t, s.First.IsZero())
}

func TestComputeTotals(t *testing.T) {
	txs := []chain.Transaction{
		tx("0x1", "0xa", me, 1.5, 10, at(3, 12)),
		tx("0x2", me, "0xb", 0.5, 20, at(2, 12)),
		tx("0x3", "0xa", "0xME", 2, 30, at(1, 12)),
	}
	s := Compute(txs)

	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Incoming)
	assert.Equal(t, 1, s.Outgoing)
	assert.InDelta(t, 3.5, s.ReceivedEth, 1e-9)
	assert.InDelta(t, 0.5, s.SentEth, 1e-9)
	assert.InDelta(t, 20, s.AvgGasGwei, 1e-9)
	assert.InDelta(t, 20, s.MedianGas, 1e-9)
	assert.InDelta(t, 60*21000/1e9, s.GasFeeEth, 1e-12)
	assert.Equal(t, time.Unix(at(1, 12), 0).UTC(), s.First)
	assert.Equal(t, time.Unix(at(3, 12), 0).UTC(), s.Last)
}

func TestTopSendersGroupsCaseInsensitively(t *testing.T) {
	txs := []chain.Transaction{
		tx("0x1", "0xAAA", me, 1, 0, at(1, 0)),
		tx("0x2", "0xaaa", me, 2, 0, at(1, 1)),
		tx("0x3", "0xbbb", me, 2.5, 0, at(1, 2)),
		tx("0x4", me, "0xccc", 9, 0, at(1, 3)),
	}
	top := Top(txs, chain.Incoming, TopN)
	require.Len(t, top, 2)
	assert.Equal(t, "0xAAA", top[0].Address)
	assert.InDelta(t, 3, top[0].ValueEth, 1e-9)
	assert.Equal(t, 2, top[0].Count)
	assert.Equal(t, "0xbbb", top[1].Address)

	receivers := Top(txs, chain.Outgoing, TopN)
	require.Len(t, receivers, 1)
	assert.Equal(t, "0xccc", receivers[0].Address)
}

func TestTopKeepsAtMostN(t *testing.T) {
	var txs []chain.Transaction
	for i, addr := range []string{"0x1", "0x2", "0x3", "0x4", "0x5", "0x6", "0x7"} {
		txs = append(txs, tx(addr, addr, me, float64(i+1), 0, at(1, i)))
	}
	top := Top(txs, chain.Incoming, TopN)
	require.Len(t, top, TopN)
	assert.Equal(t, "0x7", top[0].Address)
	assert.Equal(t, "0x3", top[4].Address)
}

func TestTopTiesKeepFirstSeenOrder(t *testing.T) {
	txs := []chain.Transaction{
		tx("0x1", "0xfirst", me, 1, 0, at(1, 0)),
		tx("0x2", "0xsecond", me, 1, 0, at(1, 1)),
	}
	top := Top(txs, chain.Incoming, TopN)
	require.Len(t, top, 2)
	assert.Equal(t, "0xfirst", top[0].Address)
	assert.Equal(t, "0xsecond", top[1].Address)
}

func TestDailyVolumeFillsGaps(t *testing.T) {
	txs := []chain.Transaction{
		tx("0x1", "0xa", me, 1, 0, at(5, 23)),
		tx("0x2", "0xa", me, 2, 0, at(5, 1)),
		tx("0x3", "0xa", me, 4, 0, at(2, 9)),
	}
	series := DailyVolume(txs)
	require.Len(t, series, 4)

	assert.Equal(t, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), series[0].Day)
	assert.InDelta(t, 4, series[0].Value, 1e-9)
	assert.Zero(t, series[1].Value)
	assert.Zero(t, series[2].Value)
	assert.InDelta(t, 3, series[3].Value, 1e-9)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), series[3].Day)
}

func TestDailyAvgGasOmitsEmptyDays(t *testing.T) {
	txs := []chain.Transaction{
		tx("0x1", "0xa", me, 0, 10, at(5, 1)),
		tx("0x2", "0xa", me, 0, 30, at(5, 2)),
		tx("0x3", "0xa", me, 0, 7, at(1, 2)),
	}
	series := DailyAvgGas(txs)
	require.Len(t, series, 2)
	assert.InDelta(t, 7, series[0].Value, 1e-9)
	assert.InDelta(t, 20, series[1].Value, 1e-9)
}

func TestLastAndMax(t *testing.T) {
	series := []DayPoint{{Value: 1}, {Value: 5}, {Value: 3}}
	assert.Len(t, Last(series, 2), 2)
	assert.Equal(t, 5.0, Last(series, 2)[0].Value)
	assert.Len(t, Last(series, 10), 3)
	assert.Equal(t, 5.0, Max(series))
	assert.Zero(t, Max(nil))
}
