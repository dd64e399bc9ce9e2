package analyzer

import (
	"fmt"

	"github.com/sipeed/tokenbot/pkg/token"
)

const (
	lowLiquidityUSD   = 10_000
	highTaxPct        = 0.10
	concentratedPct   = 0.50
	ownerHeavyPct     = 0.20
	criticalThreshold = 60
	highThreshold     = 40
	mediumThreshold   = 20
)

// assessRisk scores the report's security and market sections. A honeypot is
// always critical.
func assessRisk(r *token.Report) token.Risk {
	if r.Security == nil && r.Market == nil {
		return token.Risk{Level: token.RiskUnknown, Factors: []string{"No security or market data"}}
	}

	var risk token.Risk
	add := func(points int, factor string) {
		risk.Score += points
		risk.Factors = append(risk.Factors, factor)
	}

	if s := r.Security; s != nil {
		if s.Honeypot {
			add(50, "Honeypot: tokens cannot be sold")
		}
		if !s.OpenSource {
			add(15, "Contract source is not verified")
		}
		if s.Proxy {
			add(10, "Upgradeable proxy contract")
		}
		if s.Mintable {
			add(10, "Owner can mint new tokens")
		}
		if s.OwnerCanPause {
			add(10, "Transfers can be paused")
		}
		if s.Blacklist {
			add(10, "Blacklist function present")
		}
		if s.BuyTax > highTaxPct {
			add(15, fmt.Sprintf("High buy tax (%.0f%%)", s.BuyTax*100))
		}
		if s.SellTax > highTaxPct {
			add(15, fmt.Sprintf("High sell tax (%.0f%%)", s.SellTax*100))
		}
	} else {
		add(10, "No security audit data")
	}

	if m := r.Market; m != nil {
		if m.LiquidityUSD < lowLiquidityUSD {
			add(15, "Low liquidity")
		}
	} else {
		add(10, "No DEX market found")
	}

	if h := r.Holders; h != nil {
		if h.TopHolderPct > concentratedPct {
			add(15, "Top holder owns over half the supply")
		}
		if h.OwnerPct > ownerHeavyPct {
			add(10, "Owner holds a large share")
		}
	}

	switch {
	case r.Security != nil && r.Security.Honeypot, risk.Score >= criticalThreshold:
		risk.Level = token.RiskCritical
	case risk.Score >= highThreshold:
		risk.Level = token.RiskHigh
	case risk.Score >= mediumThreshold:
		risk.Level = token.RiskMedium
	default:
		risk.Level = token.RiskLow
	}
	return risk
}
