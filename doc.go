// Package pcetoken provides community-currency ledgers for Go applications.
//
// pcetoken is designed as a library, not a service. Each community token is
// an isolated ledger whose money supply changes over time:
//
//   - Periodic decay shrinks every balance once per configured interval
//   - A weekly bonus grows every balance each Wednesday (UTC)
//   - Transfers may mint a bounded issuance to the sender
//   - Tokens exchange into each other at fixed rates when both sides consent
//
// Periodic events are applied lazily. Nothing runs in the background; the
// next mutating call settles every boundary that passed since the last one.
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/pcetoken"
//	    "github.com/xraph/pcetoken/store/memory"
//	)
//
//	e := pcetoken.New(memory.New())
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop(ctx)
//
// # Core Concepts
//
// A token is created from CreateParams. The creator receives
// AmountToExchange*DilutionFactor/1e18 tokens and becomes the owner:
//
//	addr, err := e.CreateToken(ctx, creator, pcetoken.CreateParams{
//	    Name:                 "Arigato",
//	    Symbol:               "ARGT",
//	    AmountToExchange:     pcetoken.Units(1000),
//	    DilutionFactor:       pcetoken.Units(1),
//	    DecreaseIntervalDays: 7,
//	    DecreaseBp:           20,
//	    IncomeAllowMethod:    pcetoken.All,
//	    OutgoAllowMethod:     pcetoken.All,
//	})
//
// Transfers settle pending events first:
//
//	err := e.Transfer(ctx, addr, from, to, pcetoken.Units(30))
//
// Only the owner may replace a token's settings:
//
//	err := e.UpdateSettings(ctx, addr, owner, next)
//
// # Amounts
//
// All amounts are integers in base units of 10^-18 tokens. Basis points
// are out of 10000. Use Units, ParseUnits and FormatUnits to convert.
//
// # Persistence
//
// Every successful mutation stores the new ledger state and appends journal
// entries with TypeID identifiers (jrnl_...). A mutation whose persistence
// fails is rolled back in memory. Backends: memory, PostgreSQL, SQLite and
// MongoDB via grove.
package pcetoken
