// Package summary derives the dashboard aggregates from a transaction set.
package summary

import (
	"sort"
	"strings"
	"time"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/montanaflynn/stats"
)

// TopN is the number of counterparties kept per ranking.
const TopN = 5

// Counterparty is an address ranked by total value exchanged with the
// watched address.
type Counterparty struct {
	Address  string  `json:"address"`
	ValueEth float64 `json:"value_eth"`
	Count    int     `json:"count"`
}

// DayPoint is one UTC day of a daily series.
type DayPoint struct {
	Day   time.Time `json:"day"`
	Value float64   `json:"value"`
}

// Summary holds every aggregate the dashboard renders.
type Summary struct {
	Total        int            `json:"total"`
	Incoming     int            `json:"incoming"`
	Outgoing     int            `json:"outgoing"`
	ReceivedEth  float64        `json:"received_eth"`
	SentEth      float64        `json:"sent_eth"`
	GasFeeEth    float64        `json:"gas_fee_eth"`
	AvgGasGwei   float64        `json:"avg_gas_gwei"`
	MedianGas    float64        `json:"median_gas_gwei"`
	TopSenders   []Counterparty `json:"top_senders"`
	TopReceivers []Counterparty `json:"top_receivers"`
	DailyVolume  []DayPoint     `json:"daily_volume"`
	DailyGas     []DayPoint     `json:"daily_avg_gas"`
	First        time.Time      `json:"first"`
	Last         time.Time      `json:"last"`
}

// Compute aggregates txs. An empty input yields a zero Summary with empty,
// non-nil slices.
func Compute(txs []chain.Transaction) Summary {
	s := Summary{
		Total:        len(txs),
		TopSenders:   []Counterparty{},
		TopReceivers: []Counterparty{},
		DailyVolume:  []DayPoint{},
		DailyGas:     []DayPoint{},
	}
	if len(txs) == 0 {
		return s
	}

	var received, sent, fees, gas stats.Float64Data
	for _, tx := range txs {
		if tx.Direction == chain.Incoming {
			s.Incoming++
			received = append(received, tx.ValueEth)
		} else {
			s.Outgoing++
			sent = append(sent, tx.ValueEth)
		}
		fees = append(fees, tx.GasFeeEth)
		gas = append(gas, tx.GasPriceGwei)

		t := tx.Time()
		if s.First.IsZero() || t.Before(s.First) {
			s.First = t
		}
		if t.After(s.Last) {
			s.Last = t
		}
	}

	s.ReceivedEth = sum(received)
	s.SentEth = sum(sent)
	s.GasFeeEth = sum(fees)
	s.AvgGasGwei = mean(gas)
	s.MedianGas = median(gas)

	s.TopSenders = Top(txs, chain.Incoming, TopN)
	s.TopReceivers = Top(txs, chain.Outgoing, TopN)
	s.DailyVolume = DailyVolume(txs)
	s.DailyGas = DailyAvgGas(txs)
	return s
}

// Top ranks the counterparties of transactions in direction dir by summed
// value, descending, keeping at most n. Senders are ranked for Incoming and
// receivers for Outgoing. Addresses are grouped case-insensitively and
// reported in the form first seen.
func Top(txs []chain.Transaction, dir chain.Direction, n int) []Counterparty {
	type group struct {
		display string
		values  stats.Float64Data
		order   int
	}
	groups := map[string]*group{}
	for _, tx := range txs {
		if tx.Direction != dir {
			continue
		}
		addr := tx.Counterparty()
		key := strings.ToLower(addr)
		g, ok := groups[key]
		if !ok {
			g = &group{display: addr, order: len(groups)}
			groups[key] = g
		}
		g.values = append(g.values, tx.ValueEth)
	}

	ranked := make([]*group, 0, len(groups))
	for _, g := range groups {
		ranked = append(ranked, g)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := sum(ranked[i].values), sum(ranked[j].values)
		if vi != vj {
			return vi > vj
		}
		return ranked[i].order < ranked[j].order
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]Counterparty, len(ranked))
	for i, g := range ranked {
		out[i] = Counterparty{Address: g.display, ValueEth: sum(g.values), Count: len(g.values)}
	}
	return out
}

// DailyVolume sums ValueEth per UTC day from the earliest to the latest day
// present, ascending. Days without transactions are reported as zero.
func DailyVolume(txs []chain.Transaction) []DayPoint {
	byDay := bucket(txs, func(tx chain.Transaction) float64 { return tx.ValueEth })
	if len(byDay) == 0 {
		return []DayPoint{}
	}

	days := sortedDays(byDay)
	first, last := days[0], days[len(days)-1]
	out := []DayPoint{}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, DayPoint{Day: d, Value: sum(byDay[d])})
	}
	return out
}

// DailyAvgGas averages GasPriceGwei per UTC day, ascending. Days without
// transactions are omitted.
func DailyAvgGas(txs []chain.Transaction) []DayPoint {
	byDay := bucket(txs, func(tx chain.Transaction) float64 { return tx.GasPriceGwei })
	out := make([]DayPoint, 0, len(byDay))
	for _, d := range sortedDays(byDay) {
		out = append(out, DayPoint{Day: d, Value: mean(byDay[d])})
	}
	return out
}

// Last returns the trailing n points of series.
func Last(series []DayPoint, n int) []DayPoint {
	if n < 0 || len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}

// Max returns the largest value in series, or zero.
func Max(series []DayPoint) float64 {
	data := make(stats.Float64Data, len(series))
	for i, p := range series {
		data[i] = p.Value
	}
	m, err := stats.Max(data)
	if err != nil {
		return 0
	}
	return m
}

func bucket(txs []chain.Transaction, value func(chain.Transaction) float64) map[time.Time]stats.Float64Data {
	out := map[time.Time]stats.Float64Data{}
	for _, tx := range txs {
		d := tx.Day()
		out[d] = append(out[d], value(tx))
	}
	return out
}

func sortedDays(m map[time.Time]stats.Float64Data) []time.Time {
	days := make([]time.Time, 0, len(m))
	for d := range m {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// sum, mean and median treat empty input as zero.

func sum(data stats.Float64Data) float64 {
	v, err := stats.Sum(data)
	if err != nil {
		return 0
	}
	return v
}

func mean(data stats.Float64Data) float64 {
	v, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return v
}

func median(data stats.Float64Data) float64 {
	v, err := stats.Median(data)
	if err != nil {
		return 0
	}
	return v
}
