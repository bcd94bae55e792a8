// Package format turns chain values into human-readable strings.
package format

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

var (
	weiPerEther = new(big.Float).SetPrec(256).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	weiPerGwei  = new(big.Float).SetPrec(256).SetInt64(1e9)
)

// Missing is shown for values the node did not report.
const Missing = "-"

func scale(wei *big.Int, unit *big.Float, decimals int) string {
	f := new(big.Float).SetPrec(256).SetInt(wei)
	f.Quo(f, unit)

	s := f.Text('f', decimals)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// Ether formats a wei amount in ether with up to 6 decimals.
func Ether(wei *big.Int) string {
	if wei == nil {
		return Missing
	}
	return scale(wei, weiPerEther, 6) + " ETH"
}

// Gwei formats a wei amount in gwei with up to 2 decimals.
func Gwei(wei *big.Int) string {
	if wei == nil {
		return Missing
	}
	return scale(wei, weiPerGwei, 2) + " gwei"
}

// ShortHash abbreviates a hash or address to its first and last 4 hex digits.
func ShortHash(h string) string {
	if len(h) <= 14 {
		return h
	}
	return h[:6] + "..." + h[len(h)-4:]
}

// Number adds thousand separators, e.g. 24277510 -> "24,277,510".
func Number(n uint64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

// GasPercent formats used/limit as a percentage.
func GasPercent(used, limit uint64) string {
	if limit == 0 {
		return Missing
	}
	return fmt.Sprintf("%.1f%%", float64(used)/float64(limit)*100)
}

// Age formats how long ago t was relative to now.
func Age(t, now time.Time) string {
	ago := now.Sub(t)
	switch {
	case ago < 0:
		return "just now"
	case ago < time.Minute:
		return fmt.Sprintf("%ds ago", int(ago.Seconds()))
	case ago < time.Hour:
		return fmt.Sprintf("%dm ago", int(ago.Minutes()))
	case ago < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(ago.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(ago.Hours()/24))
	}
}
