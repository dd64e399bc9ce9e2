// Package formatter renders a token.Report as Telegram Markdown.
package formatter

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sipeed/tokenbot/pkg/address"
	"github.com/sipeed/tokenbot/pkg/chains"
	"github.com/sipeed/tokenbot/pkg/token"
)

var ErrNilReport = errors.New("formatter: nil report")

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

var riskBadges = map[token.RiskLevel]string{
	token.RiskLow:      "🟢",
	token.RiskMedium:   "🟡",
	token.RiskHigh:     "🟠",
	token.RiskCritical: "🔴",
	token.RiskUnknown:  "⚪",
}

type Formatter struct {
	chains *chains.Registry
}

func New(registry *chains.Registry) *Formatter {
	if registry == nil {
		registry = chains.Default()
	}
	return &Formatter{chains: registry}
}

// Format renders every section of r that carries data. Payload.Chain is
// left empty when r has no chain.
func (f *Formatter) Format(r *token.Report) (token.Payload, error) {
	if r == nil {
		return token.Payload{}, ErrNilReport
	}

	var b strings.Builder
	f.writeHeader(&b, r)
	writeRisk(&b, r.Risk)
	if r.Security != nil {
		writeSecurity(&b, r.Security)
	}
	if r.Market != nil {
		writeMarket(&b, r.Market)
	}
	if r.Holders != nil {
		writeHolders(&b, r.Holders)
	}
	if r.Deployer != nil {
		writeDeployer(&b, r.Deployer)
	}
	writeFooter(&b, r)

	return token.Payload{
		Text:    strings.TrimRight(b.String(), "\n"),
		Chain:   r.Chain,
		Address: r.Address,
	}, nil
}

func (f *Formatter) writeHeader(b *strings.Builder, r *token.Report) {
	name := r.Name
	if name == "" {
		name = "Unknown Token"
	}
	fmt.Fprintf(b, "🔍 *%s*", escape(name))
	if r.Symbol != "" {
		fmt.Fprintf(b, " (%s)", escape(strings.ToUpper(r.Symbol)))
	}
	b.WriteString("\n\n")

	if c, ok := f.chains.Lookup(r.Chain); ok {
		fmt.Fprintf(b, "%s *Chain:* %s\n", c.Emoji, escape(c.Name))
	} else if r.Chain != "" {
		fmt.Fprintf(b, "⛓ *Chain:* %s\n", escape(cases.Title(language.English).String(r.Chain)))
	}
	fmt.Fprintf(b, "📄 *Contract:* `%s`\n\n", address.Checksum(r.Address))
}

func writeRisk(b *strings.Builder, risk token.Risk) {
	level := risk.Level
	if level == "" {
		level = token.RiskUnknown
	}
	fmt.Fprintf(b, "%s *Risk:* %s", riskBadges[level], level)
	if level != token.RiskUnknown {
		fmt.Fprintf(b, " (score %d)", risk.Score)
	}
	b.WriteString("\n")
	for _, factor := range risk.Factors {
		fmt.Fprintf(b, "  • %s\n", escape(factor))
	}
	b.WriteString("\n")
}

func writeSecurity(b *strings.Builder, s *token.Security) {
	b.WriteString("🛡 *Security*\n")
	check(b, "Honeypot", !s.Honeypot, "No", "YES")
	check(b, "Verified source", s.OpenSource, "Yes", "No")
	check(b, "Proxy", !s.Proxy, "No", "Yes")
	check(b, "Mintable", !s.Mintable, "No", "Yes")
	check(b, "Pausable", !s.OwnerCanPause, "No", "Yes")
	check(b, "Blacklist", !s.Blacklist, "No", "Yes")
	fmt.Fprintf(b, "Tax: buy %s / sell %s\n\n", percent(s.BuyTax), percent(s.SellTax))
}

func check(b *strings.Builder, label string, good bool, goodText, badText string) {
	mark, text := "✅", goodText
	if !good {
		mark, text = "⚠️", badText
	}
	fmt.Fprintf(b, "%s %s: %s\n", mark, label, text)
}

func writeMarket(b *strings.Builder, m *token.Market) {
	b.WriteString("📊 *Market*\n")
	fmt.Fprintf(b, "Price: $%s\n", price(m.PriceUSD))
	if m.MarketCapUSD > 0 {
		fmt.Fprintf(b, "Market cap: %s\n", usd(m.MarketCapUSD))
	}
	if m.FDVUSD > 0 {
		fmt.Fprintf(b, "FDV: %s\n", usd(m.FDVUSD))
	}
	fmt.Fprintf(b, "Liquidity: %s\n", usd(m.LiquidityUSD))
	fmt.Fprintf(b, "Volume 24h: %s\n", usd(m.Volume24hUSD))
	fmt.Fprintf(b, "Change 24h: %s\n", change(m.PriceChange24h))
	if m.DEX != "" {
		fmt.Fprintf(b, "DEX: %s\n", escape(m.DEX))
	}
	b.WriteString("\n")
}

func writeHolders(b *strings.Builder, h *token.Holders) {
	b.WriteString("👥 *Holders*\n")
	fmt.Fprintf(b, "Count: %s\n", humanize.Comma(h.Count))
	fmt.Fprintf(b, "Top holder: %s\n", percent(h.TopHolderPct))
	fmt.Fprintf(b, "Top 10: %s\n", percent(h.Top10Pct))
	if h.OwnerPct > 0 {
		fmt.Fprintf(b, "Owner: %s\n", percent(h.OwnerPct))
	}
	if h.LPHolderCount > 0 {
		fmt.Fprintf(b, "LP holders: %s\n", humanize.Comma(h.LPHolderCount))
	}
	b.WriteString("\n")
}

func writeDeployer(b *strings.Builder, d *token.Deployer) {
	b.WriteString("👤 *Deployer*\n")
	if address.IsValid(d.Address) {
		fmt.Fprintf(b, "Creator: `%s` (%s)\n", address.Short(address.Checksum(d.Address)), percent(d.CreatorPct))
	}
	switch {
	case d.Owner == "" || d.Owner == zeroAddress:
		b.WriteString("Owner: renounced\n")
	case address.IsValid(d.Owner):
		fmt.Fprintf(b, "Owner: `%s`\n", address.Short(address.Checksum(d.Owner)))
	}
	b.WriteString("\n")
}

const zeroAddress = "0x0000000000000000000000000000000000000000"

func writeFooter(b *strings.Builder, r *token.Report) {
	if len(r.Sources) > 0 {
		fmt.Fprintf(b, "_Sources: %s_\n", strings.Join(r.Sources, ", "))
	}
	if !r.AnalyzedAt.IsZero() {
		fmt.Fprintf(b, "_Analyzed %s_\n", r.AnalyzedAt.UTC().Format("2006-01-02 15:04 UTC"))
	}
}

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

// usd renders large amounts with a K/M/B suffix.
func usd(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return "$" + humanize.FtoaWithDigits(v/1e9, 2) + "B"
	case abs >= 1e6:
		return "$" + humanize.FtoaWithDigits(v/1e6, 2) + "M"
	case abs >= 1e3:
		return "$" + humanize.FtoaWithDigits(v/1e3, 2) + "K"
	default:
		return "$" + humanize.CommafWithDigits(v, 2)
	}
}

func price(v float64) string {
	if v >= 1 {
		return humanize.CommafWithDigits(v, 4)
	}
	return humanize.FtoaWithDigits(v, 10)
}

func percent(fraction float64) string {
	return humanize.FtoaWithDigits(fraction*100, 2) + "%"
}

func change(pct float64) string {
	s := humanize.FtoaWithDigits(pct, 2) + "%"
	if pct > 0 {
		return "📈 +" + s
	}
	if pct < 0 {
		return "📉 " + s
	}
	return s
}
