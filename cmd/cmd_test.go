package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Mohsinsiddi/txdash/internal/config"
	"github.com/Mohsinsiddi/txdash/internal/credential"
	"github.com/Mohsinsiddi/txdash/internal/explorer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "0xd8da6bf26964af9d7eed9e03e53415d37aa96045"

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func explorerServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "txlist", r.URL.Query().Get("action"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func okBody(hashes ...string) string {
	recs := make([]map[string]string, len(hashes))
	for i, h := range hashes {
		recs[i] = map[string]string{
			"timeStamp": "1700000000",
			"hash":      h,
			"from":      "0x2222222222222222222222222222222222222222",
			"to":        testAddr,
			"value":     "1500000000000000000",
			"gasPrice":  "20000000000",
			"gasUsed":   "21000",
		}
	}
	b, _ := json.Marshal(map[string]any{"status": "1", "message": "OK", "result": recs})
	return string(b)
}

// execute runs the root command with args against a fresh config dir state.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	txsJSON, txsJQ, txsLimit, txsKey = false, nil, 100, ""
	t.Setenv(credential.EnvAPIKey, "")
	t.Setenv("TXDASH_KEYRING_PASSWORD", "test")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", dir}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

// ---------------------------------------------------------------------------
// resolveAddress
// ---------------------------------------------------------------------------

func TestResolveAddress(t *testing.T) {
	var err error
	cfg, err = config.Load(t.TempDir())
	require.NoError(t, err)

	_, err = resolveAddress(nil)
	assert.ErrorIs(t, err, errNoAddress)

	got, err := resolveAddress([]string{"  " + testAddr + " "})
	require.NoError(t, err)
	assert.Equal(t, testAddr, got)

	_, err = resolveAddress([]string{"0x123"})
	assert.Error(t, err)

	cfg.DefaultAddress = testAddr
	got, err = resolveAddress(nil)
	require.NoError(t, err)
	assert.Equal(t, testAddr, got)
}

func TestErrorLine(t *testing.T) {
	line := errorLine(&explorer.APIError{Message: "NOTOK", Result: "Invalid API Key"})
	assert.Contains(t, line, "API Error: NOTOK - Invalid API Key")
	assert.Contains(t, errorLine(errors.New("boom")), "boom")
}

// ---------------------------------------------------------------------------
// config
// ---------------------------------------------------------------------------

func TestConfigSetAndGet(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, dir, "config", "set", "poll_interval", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "poll_interval")

	out, err = execute(t, dir, "config", "get", "poll_interval")
	require.NoError(t, err)
	assert.Equal(t, "30\n", out)
}

func TestConfigSetRejectsBadValue(t *testing.T) {
	_, err := execute(t, t.TempDir(), "config", "set", "poll_interval", "0")
	assert.Error(t, err)

	_, err = execute(t, t.TempDir(), "config", "set", "nope", "1")
	assert.Error(t, err)
}

func TestConfigList(t *testing.T) {
	out, err := execute(t, t.TempDir(), "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "api_url")
	assert.Contains(t, out, "ethereum")
	assert.Contains(t, out, "Config directory")
}

// ---------------------------------------------------------------------------
// txs
// ---------------------------------------------------------------------------

func TestTxsJSON(t *testing.T) {
	srv := explorerServer(t, okBody("0xaaa", "0xbbb"))
	dir := t.TempDir()
	_, err := execute(t, dir, "config", "set", "api_url", srv.URL)
	require.NoError(t, err)

	out, err := execute(t, dir, "txs", testAddr, "--key", "K", "--json")
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "0xaaa", docs[0]["hash"])
	assert.Equal(t, "INCOMING", docs[0]["direction"])
	assert.InDelta(t, 1.5, docs[0]["value_eth"], 1e-9)
}

func TestTxsJQFilter(t *testing.T) {
	srv := explorerServer(t, okBody("0xaaa", "0xbbb"))
	dir := t.TempDir()
	_, err := execute(t, dir, "config", "set", "api_url", srv.URL)
	require.NoError(t, err)

	out, err := execute(t, dir, "txs", testAddr, "--key", "K", "--json", "--jq", `.hash == "0xbbb"`)
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "0xbbb", docs[0]["hash"])
}

func TestTxsReport(t *testing.T) {
	srv := explorerServer(t, okBody("0xaaa"))
	dir := t.TempDir()
	_, err := execute(t, dir, "config", "set", "api_url", srv.URL)
	require.NoError(t, err)

	out, err := execute(t, dir, "txs", testAddr, "--key", "K")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Transactions")
	assert.Contains(t, out, "Recent Transactions")
}

func TestTxsAPIError(t *testing.T) {
	srv := explorerServer(t, `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`)
	dir := t.TempDir()
	_, err := execute(t, dir, "config", "set", "api_url", srv.URL)
	require.NoError(t, err)

	_, err = execute(t, dir, "txs", testAddr, "--key", "bad")
	var apiErr *explorer.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid API Key", apiErr.Result)
}

func TestTxsBadFilter(t *testing.T) {
	_, err := execute(t, t.TempDir(), "txs", testAddr, "--key", "K", "--jq", ".hash ==")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "jq filter"))
}
