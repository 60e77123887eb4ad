package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/Mohsinsiddi/txdash/internal/credential"
	"github.com/Mohsinsiddi/txdash/internal/explorer"
	"github.com/Mohsinsiddi/txdash/internal/metrics"
	"github.com/Mohsinsiddi/txdash/internal/ui"
)

var errNoAddress = errors.New("no address given; pass one or run `txdash config set default_address <addr>`")

// resolveAddress picks the positional address, falling back to the
// configured default.
func resolveAddress(args []string) (string, error) {
	addr := cfg.DefaultAddress
	if len(args) > 0 {
		addr = args[0]
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errNoAddress
	}
	if err := chain.ValidateAddress(addr); err != nil {
		return "", err
	}
	return addr, nil
}

// resolveKey reads the API key from the flag, the environment or the keychain.
// The keychain is only opened when neither of the others is set.
func resolveKey(flag string) (string, error) {
	var store credential.Store
	if strings.TrimSpace(flag) == "" && strings.TrimSpace(os.Getenv(credential.EnvAPIKey)) == "" {
		store = credential.OpenKeychain(cfg.Dir())
	}
	key, src, err := credential.Resolve(flag, store)
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	log.Debug().Str("source", string(src)).Bool("found", key != "").Msg("resolved API key")
	return key, nil
}

// newSource builds the explorer client for the configured chain, wrapped in
// the response cache.
func newSource(m *metrics.Metrics) (*explorer.CachedSource, chain.Network, error) {
	net, err := cfg.Network()
	if err != nil {
		return nil, chain.Network{}, fmt.Errorf("unknown chain %q (supported: %s)", cfg.Chain, strings.Join(chain.NetworkNames(), ", "))
	}
	client := explorer.NewClient(cfg.APIURL,
		explorer.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeoutDuration()}),
		explorer.WithChainID(net.ChainID),
		explorer.WithRateLimit(cfg.RateLimit),
		explorer.WithRetries(uint64(cfg.Retries), 0),
		explorer.WithLogger(log),
		explorer.WithMetrics(m),
	)
	return explorer.NewCachedSource(client, cfg.CacheSize, cfg.CacheTTLDuration(), m), net, nil
}

// errorLine formats a command failure for stderr.
func errorLine(err error) string {
	return ui.Err(ui.ErrorText(err))
}
