package command

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
)

const maxRawOutput = 2000

// FormatOutput pattern-matches the executed command against known
// endpoint/command signatures to produce a labeled summary; unknown
// commands fall back to raw (truncated) output.
func FormatOutput(commandLine, output string) string {
	trimmed := strings.TrimSpace(output)
	lower := strings.ToLower(commandLine)

	switch {
	case strings.Contains(lower, "wttr.in"):
		return "Weather: " + trimmed
	case strings.HasPrefix(lower, "date"):
		return "Current date/time: " + trimmed
	case strings.Contains(lower, "ipify") || strings.Contains(lower, "ifconfig.me"):
		return "Public IP address: " + trimmed
	case strings.Contains(lower, "er-api.com") || strings.Contains(lower, "exchangerate"):
		return formatExchangeRates(trimmed)
	case strings.Contains(lower, "rss") || strings.HasSuffix(lower, ".xml"):
		return formatNewsFeed(trimmed)
	case strings.HasPrefix(lower, "uname"):
		return "System: " + trimmed
	case strings.HasPrefix(lower, "df"):
		return "Disk usage:\n" + truncate(trimmed, maxRawOutput)
	case strings.HasPrefix(lower, "free"):
		return "Memory usage:\n" + truncate(trimmed, maxRawOutput)
	case strings.HasPrefix(lower, "uptime"):
		return "Uptime: " + trimmed
	case strings.HasPrefix(lower, "hostname"):
		return "Hostname: " + trimmed
	default:
		return truncate(trimmed, maxRawOutput)
	}
}

func formatExchangeRates(output string) string {
	var payload struct {
		BaseCode string             `json:"base_code"`
		Rates    map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal([]byte(output), &payload); err != nil || len(payload.Rates) == 0 {
		return truncate(output, maxRawOutput)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Exchange rates (base %s):\n", payload.BaseCode)
	for _, code := range []string{"EUR", "GBP", "JPY", "BRL", "CAD", "AUD"} {
		if rate, ok := payload.Rates[code]; ok {
			fmt.Fprintf(&b, "  %s: %.4f\n", code, rate)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatNewsFeed(output string) string {
	var feed struct {
		Channel struct {
			Items []struct {
				Title string `xml:"title"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal([]byte(output), &feed); err != nil || len(feed.Channel.Items) == 0 {
		return truncate(output, maxRawOutput)
	}

	var b strings.Builder
	b.WriteString("Top headlines:\n")
	for i, item := range feed.Channel.Items {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "  - %s\n", item.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}
