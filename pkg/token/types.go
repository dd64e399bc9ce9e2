// Package token holds the values that flow between the analyzer, the
// formatter and the dispatch layer.
package token

import "time"

type RiskLevel string

const (
	RiskUnknown  RiskLevel = "UNKNOWN"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Report is the structured result of analyzing one contract address.
// Sections are nil when no provider returned data for them.
type Report struct {
	Address    string
	Chain      string
	Name       string
	Symbol     string
	Security   *Security
	Market     *Market
	Holders    *Holders
	Deployer   *Deployer
	Risk       Risk
	Sources    []string
	AnalyzedAt time.Time
}

type Security struct {
	Honeypot      bool
	OpenSource    bool
	Proxy         bool
	Mintable      bool
	OwnerCanPause bool
	Blacklist     bool
	BuyTax        float64
	SellTax       float64
}

type Market struct {
	PriceUSD       float64
	MarketCapUSD   float64
	FDVUSD         float64
	LiquidityUSD   float64
	Volume24hUSD   float64
	PriceChange24h float64
	DEX            string
	PairAddress    string
}

type Holders struct {
	Count         int64
	TopHolderPct  float64
	Top10Pct      float64
	OwnerPct      float64
	CreatorPct    float64
	LPHolderCount int64
}

type Deployer struct {
	Address    string
	Owner      string
	CreatorPct float64
}

type Risk struct {
	Level   RiskLevel
	Score   int
	Factors []string
}

// Payload is a formatted, transport-ready rendering of a Report.
// Chain is empty when the chain could not be determined.
type Payload struct {
	Text    string
	Chain   string
	Address string
}
