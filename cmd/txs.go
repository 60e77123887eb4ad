package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Mohsinsiddi/txdash/internal/chain"
	"github.com/Mohsinsiddi/txdash/internal/poller"
	"github.com/Mohsinsiddi/txdash/internal/query"
	"github.com/Mohsinsiddi/txdash/internal/session"
	"github.com/Mohsinsiddi/txdash/internal/ui"
	"github.com/spf13/cobra"
)

var (
	txsLimit int
	txsJSON  bool
	txsJQ    []string
	txsKey   string
)

var txsCmd = &cobra.Command{
	Use:   "txs [address]",
	Short: "Fetch transactions once and print the summary",
	Long: `Fetch the transaction history of an address once and print the
dashboard as static text, or as JSON with --json.

--jq filters transactions with jq expressions evaluated against each
transaction's JSON form; a transaction is kept only when every expression
yields true. Fields: hash, timestamp, time, from, to, direction, value_wei,
value_eth, gas_price_wei, gas_price_gwei, gas_used, gas_fee_wei, gas_fee_eth.

Examples:
  txdash txs 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045
  txdash txs --jq '.direction == "INCOMING"' --jq '.value_eth > 1'
  txdash txs --json --limit 20`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := query.Compile(txsJQ...)
		if err != nil {
			return err
		}
		address, err := resolveAddress(args)
		if err != nil {
			return err
		}
		key, err := resolveKey(txsKey)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runTxs(ctx, cmd.OutOrStdout(), key, address, filter)
	},
}

func runTxs(ctx context.Context, out io.Writer, key, address string, filter *query.Filter) error {
	src, net, err := newSource(nil)
	if err != nil {
		return err
	}
	engine := poller.New(src, session.New(), poller.Config{}, poller.WithLogger(log))

	spin := ui.NewSpinner(os.Stderr, fmt.Sprintf("Fetching transactions on %s...", ui.ChainName(net.DisplayName)))
	spin.Start()
	if err := engine.Fetch(ctx, key, address); err != nil {
		spin.Stop()
		return err
	}
	spin.StopWithMsg(ui.Success(fmt.Sprintf("Fetched %s transactions", ui.FormatCount(len(engine.State().Transactions())))))

	if err := cfg.RememberAddress(address); err != nil {
		log.Warn().Err(err).Msg("could not save recent address")
	}

	txs, err := filter.Apply(engine.State().Transactions())
	if err != nil {
		return err
	}

	if txsJSON {
		return writeJSON(out, txs, txsLimit)
	}
	if len(txs) == 0 {
		fmt.Fprintln(out, ui.Info("No transactions found for this address."))
		return nil
	}
	fmt.Fprint(out, ui.Report(address, net, txs, txsLimit))
	if txsLimit >= 0 && len(txs) > txsLimit {
		fmt.Fprintln(out, ui.Meta(fmt.Sprintf("  showing %d of %d; raise with --limit", txsLimit, len(txs))))
	}
	return nil
}

func writeJSON(out io.Writer, txs []chain.Transaction, limit int) error {
	if limit >= 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	docs := make([]map[string]any, len(txs))
	for i, tx := range txs {
		docs[i] = query.Document(tx)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

func init() {
	txsCmd.Flags().IntVar(&txsLimit, "limit", ui.RecentLimit, "max transactions to list (-1 for all)")
	txsCmd.Flags().BoolVar(&txsJSON, "json", false, "print transactions as JSON")
	txsCmd.Flags().StringArrayVar(&txsJQ, "jq", nil, "jq filter; repeatable, all must match")
	txsCmd.Flags().StringVar(&txsKey, "key", "", "explorer API key")
}
