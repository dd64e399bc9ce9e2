package analyzer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sipeed/tokenbot/pkg/chains"
	"github.com/sipeed/tokenbot/pkg/token"
)

type pair struct {
	chain          chains.Chain
	baseAddress    string
	name           string
	symbol         string
	dex            string
	pairAddress    string
	priceUSD       float64
	liquidityUSD   float64
	volume24h      float64
	priceChange24h float64
	fdv            float64
	marketCap      float64
}

func (p pair) market() *token.Market {
	return &token.Market{
		PriceUSD:       p.priceUSD,
		MarketCapUSD:   p.marketCap,
		FDVUSD:         p.fdv,
		LiquidityUSD:   p.liquidityUSD,
		Volume24hUSD:   p.volume24h,
		PriceChange24h: p.priceChange24h,
		DEX:            p.dex,
		PairAddress:    p.pairAddress,
	}
}

// fetchPairs returns the DexScreener pairs on registered chains.
func (c *Client) fetchPairs(ctx context.Context, address string) ([]pair, error) {
	resp, err := c.dex.R().
		SetContext(ctx).
		SetPathParam("address", address).
		Get("/latest/dex/tokens/{address}")
	if err != nil {
		return nil, fmt.Errorf("dexscreener: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("dexscreener: http %d", resp.StatusCode())
	}

	var pairs []pair
	gjson.GetBytes(resp.Body(), "pairs").ForEach(func(_, p gjson.Result) bool {
		chain, ok := c.chains.ByDexScreenerID(p.Get("chainId").String())
		if !ok {
			return true
		}
		pairs = append(pairs, pair{
			chain:          chain,
			baseAddress:    strings.ToLower(p.Get("baseToken.address").String()),
			name:           p.Get("baseToken.name").String(),
			symbol:         p.Get("baseToken.symbol").String(),
			dex:            p.Get("dexId").String(),
			pairAddress:    p.Get("pairAddress").String(),
			priceUSD:       p.Get("priceUsd").Float(),
			liquidityUSD:   p.Get("liquidity.usd").Float(),
			volume24h:      p.Get("volume.h24").Float(),
			priceChange24h: p.Get("priceChange.h24").Float(),
			fdv:            p.Get("fdv").Float(),
			marketCap:      p.Get("marketCap").Float(),
		})
		return true
	})
	return pairs, nil
}

// bestPair picks the most liquid pair where address is the base token.
func bestPair(pairs []pair, address string) (pair, bool) {
	var best pair
	found := false
	for _, p := range pairs {
		if p.baseAddress != address {
			continue
		}
		if !found || p.liquidityUSD > best.liquidityUSD {
			best, found = p, true
		}
	}
	return best, found
}

type securityData struct {
	name          string
	symbol        string
	honeypot      bool
	openSource    bool
	proxy         bool
	mintable      bool
	pausable      bool
	blacklist     bool
	buyTax        float64
	sellTax       float64
	holderCount   int64
	lpHolderCount int64
	owner         string
	creator       string
	ownerPct      float64
	creatorPct    float64
	topHolderPct  float64
	top10Pct      float64
}

// fetchSecurity returns nil data when GoPlus has no record for the token on
// chain.
func (c *Client) fetchSecurity(ctx context.Context, chain chains.Chain, address string) (*securityData, error) {
	resp, err := c.goplus.R().
		SetContext(ctx).
		SetPathParam("chain", strconv.FormatInt(chain.ID, 10)).
		SetQueryParam("contract_addresses", address).
		Get("/api/v1/token_security/{chain}")
	if err != nil {
		return nil, fmt.Errorf("goplus %s: %w", chain.Key, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("goplus %s: http %d", chain.Key, resp.StatusCode())
	}

	body := resp.Body()
	if code := gjson.GetBytes(body, "code"); code.Exists() && code.Int() != 1 {
		return nil, fmt.Errorf("goplus %s: code %d: %s", chain.Key, code.Int(), gjson.GetBytes(body, "message").String())
	}
	var r gjson.Result
	gjson.GetBytes(body, "result").ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.String(), address) {
			r = value
			return false
		}
		return true
	})
	if !r.IsObject() || len(r.Map()) == 0 {
		return nil, nil
	}

	d := &securityData{
		name:          r.Get("token_name").String(),
		symbol:        r.Get("token_symbol").String(),
		honeypot:      flag(r, "is_honeypot"),
		openSource:    flag(r, "is_open_source"),
		proxy:         flag(r, "is_proxy"),
		mintable:      flag(r, "is_mintable"),
		pausable:      flag(r, "transfer_pausable"),
		blacklist:     flag(r, "is_blacklisted"),
		buyTax:        r.Get("buy_tax").Float(),
		sellTax:       r.Get("sell_tax").Float(),
		holderCount:   r.Get("holder_count").Int(),
		lpHolderCount: r.Get("lp_holder_count").Int(),
		owner:         r.Get("owner_address").String(),
		creator:       r.Get("creator_address").String(),
		ownerPct:      r.Get("owner_percent").Float(),
		creatorPct:    r.Get("creator_percent").Float(),
	}
	holders := r.Get("holders").Array()
	for i, h := range holders {
		pct := h.Get("percent").Float()
		if i == 0 {
			d.topHolderPct = pct
		}
		if i < 10 {
			d.top10Pct += pct
		}
	}
	return d, nil
}

func flag(r gjson.Result, key string) bool {
	return r.Get(key).String() == "1"
}

func (d *securityData) apply(report *token.Report) {
	if report.Name == "" {
		report.Name = d.name
	}
	if report.Symbol == "" {
		report.Symbol = d.symbol
	}
	report.Security = &token.Security{
		Honeypot:      d.honeypot,
		OpenSource:    d.openSource,
		Proxy:         d.proxy,
		Mintable:      d.mintable,
		OwnerCanPause: d.pausable,
		Blacklist:     d.blacklist,
		BuyTax:        d.buyTax,
		SellTax:       d.sellTax,
	}
	report.Holders = &token.Holders{
		Count:         d.holderCount,
		TopHolderPct:  d.topHolderPct,
		Top10Pct:      d.top10Pct,
		OwnerPct:      d.ownerPct,
		CreatorPct:    d.creatorPct,
		LPHolderCount: d.lpHolderCount,
	}
	if d.creator != "" || d.owner != "" {
		report.Deployer = &token.Deployer{
			Address:    d.creator,
			Owner:      d.owner,
			CreatorPct: d.creatorPct,
		}
	}
}
