// Package analyzer gathers market and security data for a contract address
// from DexScreener and GoPlus and assembles a token.Report.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sipeed/tokenbot/pkg/chains"
	"github.com/sipeed/tokenbot/pkg/logger"
	"github.com/sipeed/tokenbot/pkg/token"
)

var (
	// ErrTokenNotFound means every provider answered but none knew the token.
	ErrTokenNotFound = errors.New("token not found on any supported chain")
	// ErrUpstream means no provider could be reached successfully.
	ErrUpstream = errors.New("data providers unavailable")
)

type Options struct {
	DexScreenerURL string
	GoPlusURL      string
	Timeout        time.Duration
	Chains         *chains.Registry
}

type Client struct {
	dex    *resty.Client
	goplus *resty.Client
	chains *chains.Registry
	now    func() time.Time
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Chains == nil {
		opts.Chains = chains.Default()
	}
	return &Client{
		dex:    newRESTClient(opts.DexScreenerURL, opts.Timeout),
		goplus: newRESTClient(opts.GoPlusURL, opts.Timeout),
		chains: opts.Chains,
		now:    time.Now,
	}
}

func newRESTClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "tokenbot/1.0")
}

// maxUpstreamRequests bounds the requests one analysis has in flight.
const maxUpstreamRequests = 4

type securityLookup struct {
	chain chains.Chain
	data  *securityData
	err   error
}

// Analyze queries every provider concurrently. A provider failure only
// matters when no other provider produced data for the token.
func (c *Client) Analyze(ctx context.Context, address string) (*token.Report, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	networks := c.chains.All()

	var (
		pairs  []pair
		dexErr error
	)
	lookups := make([]securityLookup, len(networks))

	// No group context: a failed provider does not cancel the others.
	var g errgroup.Group
	g.SetLimit(maxUpstreamRequests)
	g.Go(func() error {
		pairs, dexErr = c.fetchPairs(ctx, address)
		return dexErr
	})
	for i, chain := range networks {
		lookups[i].chain = chain
		g.Go(func() error {
			lookups[i].data, lookups[i].err = c.fetchSecurity(ctx, chain, address)
			return lookups[i].err
		})
	}

	var failures []error
	if err := g.Wait(); err != nil {
		if dexErr != nil {
			failures = append(failures, dexErr)
		}
		for _, l := range lookups {
			if l.err != nil {
				failures = append(failures, l.err)
			}
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	best, hasPair := bestPair(pairs, address)
	var chain chains.Chain
	switch {
	case hasPair:
		chain = best.chain
	default:
		found := false
		for _, l := range lookups {
			if l.data != nil {
				chain, found = l.chain, true
				break
			}
		}
		if !found {
			if len(failures) == len(lookups)+1 {
				return nil, fmt.Errorf("%w: %w", ErrUpstream, errors.Join(failures...))
			}
			return nil, ErrTokenNotFound
		}
	}

	for _, err := range failures {
		logger.WarnCF("analyzer", "Provider failed", map[string]any{
			"chain": chain.Key,
			"error": err.Error(),
		})
	}

	report := &token.Report{
		Address:    address,
		Chain:      chain.Key,
		AnalyzedAt: c.now().UTC(),
	}
	if hasPair {
		report.Name, report.Symbol = best.name, best.symbol
		report.Market = best.market()
		report.Sources = append(report.Sources, "DexScreener")
	}
	for _, l := range lookups {
		if l.chain.Key != chain.Key || l.data == nil {
			continue
		}
		l.data.apply(report)
		report.Sources = append(report.Sources, "GoPlus")
	}
	report.Risk = assessRisk(report)
	return report, nil
}
