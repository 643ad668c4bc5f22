package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/pcetoken"
	"github.com/xraph/pcetoken/basetoken"
	"github.com/xraph/pcetoken/registry"
	"github.com/xraph/pcetoken/store/memory"
	"github.com/xraph/pcetoken/types"
)

// Scenario is a scripted sequence of token operations.
type Scenario struct {
	Start     time.Time     `yaml:"start"`
	BaseToken *baseSpec     `yaml:"base_token"`
	Tokens    []tokenSpec   `yaml:"tokens"`
	Steps     []step        `yaml:"steps"`
	Expect    []expectation `yaml:"expect"`
}

type baseSpec struct {
	Name   string        `yaml:"name"`
	Symbol string        `yaml:"symbol"`
	Owner  types.Address `yaml:"owner"`
	Supply string        `yaml:"supply"`
}

type tokenSpec struct {
	ID               string                `yaml:"id"`
	Creator          types.Address         `yaml:"creator"`
	AmountToExchange string                `yaml:"amount_to_exchange"`
	DilutionFactor   string                `yaml:"dilution_factor"`
	Params           registry.CreateParams `yaml:",inline"`
}

type step struct {
	Advance  string        `yaml:"advance"`
	Transfer *transferStep `yaml:"transfer"`
	Exchange *exchangeStep `yaml:"exchange"`
	CatchUp  string        `yaml:"catch_up"`
}

type transferStep struct {
	Token  string        `yaml:"token"`
	From   types.Address `yaml:"from"`
	To     types.Address `yaml:"to"`
	Amount string        `yaml:"amount"`
}

type exchangeStep struct {
	From   string        `yaml:"from"`
	To     string        `yaml:"to"`
	Holder types.Address `yaml:"holder"`
	Amount string        `yaml:"amount"`
}

type expectation struct {
	Token   string        `yaml:"token"`
	Holder  types.Address `yaml:"holder"`
	Balance string        `yaml:"balance"`
	Supply  string        `yaml:"supply"`
}

// LoadScenario decodes a YAML scenario.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if sc.Start.IsZero() {
		return nil, errors.New("scenario: start is required")
	}
	sc.Start = sc.Start.UTC()
	return &sc, nil
}

// Result is the outcome of a scenario run.
type Result struct {
	Engine   *pcetoken.Engine
	Tokens   map[string]types.Address
	Failures []string
}

type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *simClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Run executes the scenario against a fresh in-memory engine. Step errors
// abort the run; unmet expectations are collected in Result.Failures.
func (sc *Scenario) Run(ctx context.Context, logger *slog.Logger) (*Result, error) {
	clk := &simClock{now: sc.Start}
	opts := []pcetoken.Option{
		pcetoken.WithLogger(logger),
		pcetoken.WithClock(clk.Now),
	}
	if sc.BaseToken != nil {
		bt, err := sc.BaseToken.build()
		if err != nil {
			return nil, err
		}
		opts = append(opts, pcetoken.WithBaseToken(bt))
	}

	eng := pcetoken.New(memory.New(), opts...)
	if err := eng.Start(ctx); err != nil {
		return nil, err
	}

	res := &Result{Engine: eng, Tokens: make(map[string]types.Address)}
	for _, ts := range sc.Tokens {
		p, err := ts.params()
		if err != nil {
			return nil, err
		}
		addr, err := eng.CreateToken(ctx, ts.Creator, p)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", ts.ID, err)
		}
		res.Tokens[ts.ID] = addr
	}

	for i, st := range sc.Steps {
		if err := st.apply(ctx, eng, clk, res.Tokens); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	for _, exp := range sc.Expect {
		if msg := exp.check(eng, res.Tokens); msg != "" {
			res.Failures = append(res.Failures, msg)
		}
	}
	return res, nil
}

func (b *baseSpec) build() (*basetoken.Token, error) {
	supply, err := types.ParseUnits(b.Supply)
	if err != nil {
		return nil, fmt.Errorf("base_token.supply: %w", err)
	}
	name, symbol := b.Name, b.Symbol
	if name == "" {
		name = "PCE Token"
	}
	if symbol == "" {
		symbol = "PCE"
	}
	bt := basetoken.New()
	if err := bt.Initialize(name, symbol, b.Owner, supply); err != nil {
		return nil, err
	}
	return bt, nil
}

func (t tokenSpec) params() (registry.CreateParams, error) {
	p := t.Params
	var err error
	if p.AmountToExchange, err = types.ParseUnits(t.AmountToExchange); err != nil {
		return p, fmt.Errorf("token %s: amount_to_exchange: %w", t.ID, err)
	}
	dilution := t.DilutionFactor
	if dilution == "" {
		dilution = "1"
	}
	if p.DilutionFactor, err = types.ParseUnits(dilution); err != nil {
		return p, fmt.Errorf("token %s: dilution_factor: %w", t.ID, err)
	}
	return p, nil
}

func (s step) apply(ctx context.Context, eng *pcetoken.Engine, clk *simClock, tokens map[string]types.Address) error {
	switch {
	case s.Advance != "":
		d, err := time.ParseDuration(s.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		clk.Advance(d)
		return nil
	case s.Transfer != nil:
		tok, err := lookupToken(tokens, s.Transfer.Token)
		if err != nil {
			return err
		}
		amount, err := types.ParseUnits(s.Transfer.Amount)
		if err != nil {
			return err
		}
		return eng.Transfer(ctx, tok, s.Transfer.From, s.Transfer.To, amount)
	case s.Exchange != nil:
		from, err := lookupToken(tokens, s.Exchange.From)
		if err != nil {
			return err
		}
		to, err := lookupToken(tokens, s.Exchange.To)
		if err != nil {
			return err
		}
		amount, err := types.ParseUnits(s.Exchange.Amount)
		if err != nil {
			return err
		}
		_, err = eng.Exchange(ctx, s.Exchange.Holder, from, to, amount)
		return err
	case s.CatchUp != "":
		tok, err := lookupToken(tokens, s.CatchUp)
		if err != nil {
			return err
		}
		_, err = eng.CatchUp(ctx, tok)
		return err
	default:
		return errors.New("empty step")
	}
}

func (e expectation) check(eng *pcetoken.Engine, tokens map[string]types.Address) string {
	tok, err := lookupToken(tokens, e.Token)
	if err != nil {
		return err.Error()
	}
	if e.Balance != "" {
		got, err := eng.BalanceOf(tok, e.Holder)
		if err != nil {
			return err.Error()
		}
		if want, err := types.ParseUnits(e.Balance); err != nil || !want.Equal(got) {
			return fmt.Sprintf("%s balance of %s: got %s, want %s", e.Token, e.Holder.Hex(), types.FormatUnits(got), e.Balance)
		}
	}
	if e.Supply != "" {
		got, err := eng.TotalSupply(tok)
		if err != nil {
			return err.Error()
		}
		if want, err := types.ParseUnits(e.Supply); err != nil || !want.Equal(got) {
			return fmt.Sprintf("%s supply: got %s, want %s", e.Token, types.FormatUnits(got), e.Supply)
		}
	}
	return ""
}

func lookupToken(tokens map[string]types.Address, id string) (types.Address, error) {
	addr, ok := tokens[id]
	if !ok {
		return types.ZeroAddress, fmt.Errorf("unknown token %q", id)
	}
	return addr, nil
}

// sortedIDs returns the scenario token ids in a stable order.
func sortedIDs(tokens map[string]types.Address) []string {
	ids := make([]string, 0, len(tokens))
	for id := range tokens {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
