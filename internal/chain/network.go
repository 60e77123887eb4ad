package chain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNetworkNotFound is returned for a network slug the explorer API does not serve.
var ErrNetworkNotFound = errors.New("network not found")

// Network is an EVM chain reachable through the Etherscan V2 unified API.
type Network struct {
	Name           string `json:"name"`
	DisplayName    string `json:"display_name"`
	ChainID        int64  `json:"chain_id"`
	NativeCurrency string `json:"native_currency"`
	Explorer       string `json:"explorer"`
}

// TxURL returns the explorer page for a transaction hash.
func (n Network) TxURL(hash string) string {
	if n.Explorer == "" || hash == "" {
		return ""
	}
	return n.Explorer + "/tx/" + hash
}

// AddressURL returns the explorer page for an address.
func (n Network) AddressURL(addr string) string {
	if n.Explorer == "" || addr == "" {
		return ""
	}
	return n.Explorer + "/address/" + addr
}

var networks = map[string]Network{
	"ethereum":  {Name: "ethereum", DisplayName: "Ethereum", ChainID: 1, NativeCurrency: "ETH", Explorer: "https://etherscan.io"},
	"base":      {Name: "base", DisplayName: "Base", ChainID: 8453, NativeCurrency: "ETH", Explorer: "https://basescan.org"},
	"polygon":   {Name: "polygon", DisplayName: "Polygon", ChainID: 137, NativeCurrency: "MATIC", Explorer: "https://polygonscan.com"},
	"arbitrum":  {Name: "arbitrum", DisplayName: "Arbitrum", ChainID: 42161, NativeCurrency: "ETH", Explorer: "https://arbiscan.io"},
	"optimism":  {Name: "optimism", DisplayName: "Optimism", ChainID: 10, NativeCurrency: "ETH", Explorer: "https://optimistic.etherscan.io"},
	"zksync":    {Name: "zksync", DisplayName: "zkSync Era", ChainID: 324, NativeCurrency: "ETH", Explorer: "https://explorer.zksync.io"},
	"scroll":    {Name: "scroll", DisplayName: "Scroll", ChainID: 534352, NativeCurrency: "ETH", Explorer: "https://scrollscan.com"},
	"bnb":       {Name: "bnb", DisplayName: "BNB Chain", ChainID: 56, NativeCurrency: "BNB", Explorer: "https://bscscan.com"},
	"avalanche": {Name: "avalanche", DisplayName: "Avalanche", ChainID: 43114, NativeCurrency: "AVAX", Explorer: "https://snowtrace.io"},
	"gnosis":    {Name: "gnosis", DisplayName: "Gnosis", ChainID: 100, NativeCurrency: "xDAI", Explorer: "https://gnosisscan.io"},
	"linea":     {Name: "linea", DisplayName: "Linea", ChainID: 59144, NativeCurrency: "ETH", Explorer: "https://lineascan.build"},
	"mantle":    {Name: "mantle", DisplayName: "Mantle", ChainID: 5000, NativeCurrency: "MNT", Explorer: "https://mantlescan.xyz"},
	"celo":      {Name: "celo", DisplayName: "Celo", ChainID: 42220, NativeCurrency: "CELO", Explorer: "https://celoscan.io"},
	"fantom":    {Name: "fantom", DisplayName: "Fantom", ChainID: 250, NativeCurrency: "FTM", Explorer: "https://ftmscan.com"},
}

// LookupNetwork finds a network by slug, ignoring case.
func LookupNetwork(name string) (Network, error) {
	n, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, ErrNetworkNotFound
	}
	return n, nil
}

// NetworkNames returns every supported slug in alphabetical order.
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
