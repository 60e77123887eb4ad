package ui

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Mohsinsiddi/txdash/internal/explorer"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var spinFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var numbers = message.NewPrinter(language.English)

// FormatAmount renders v with thousands separators and four decimals,
// e.g. 1,234.5678.
func FormatAmount(v float64) string {
	return numbers.Sprintf("%.4f", v)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return numbers.Sprintf("%d", n)
}

func formatGwei(g float64) string {
	switch {
	case g == 0:
		return "0"
	case g < 0.001:
		return fmt.Sprintf("%.6f", g)
	case g < 1:
		return fmt.Sprintf("%.4f", g)
	case g < 100:
		return fmt.Sprintf("%.2f", g)
	default:
		return fmt.Sprintf("%.0f", g)
	}
}

// ErrorText is the banner text for an initial-fetch failure.
func ErrorText(err error) string {
	var apiErr *explorer.APIError
	var netErr *explorer.NetworkError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Result != "" {
			return fmt.Sprintf("API Error: %s - %s", apiErr.Message, apiErr.Result)
		}
		return "API Error: " + apiErr.Message
	case errors.As(err, &netErr):
		return "Network error: could not reach explorer API: " + trimErr(netErr.Detail, 120)
	default:
		return err.Error()
	}
}

// trimErr drops noisy wrapping from transport errors and caps the length.
func trimErr(s string, limit int) string {
	for _, prefix := range []string{
		"dial tcp", "connection refused", "context deadline", "no such host", "status ",
	} {
		if idx := strings.Index(s, prefix); idx >= 0 {
			s = s[idx:]
			break
		}
	}
	if r := []rune(s); len(r) > limit {
		return string(r[:limit]) + "…"
	}
	return s
}

// openBrowser opens url in the OS default browser.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// copyToClipboard writes text to the system clipboard.
func copyToClipboard(text string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "windows":
		cmd = exec.Command("clip")
	default:
		// Try wl-copy (Wayland), fall back to xclip.
		if _, err := exec.LookPath("wl-copy"); err == nil {
			cmd = exec.Command("wl-copy")
		} else {
			cmd = exec.Command("xclip", "-selection", "clipboard")
		}
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	_, _ = io.WriteString(stdin, text)
	stdin.Close()
	return cmd.Wait()
}
