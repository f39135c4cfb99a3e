// Package oracle models the price-feed collaborator the vault engine (C4)
// calls out to for the supply/borrow price pair: spec.md treats the oracle
// program itself as an external collaborator, so this package only gives
// the engine a minimal, pluggable seam for reading and sanity-checking a
// price.
package oracle

import (
	"errors"
	"math/big"
)

// PricePrecision is the fixed-point scale every price is expressed in: the
// amount of borrow-token (scaled, 9-decimal canonical units) one unit of
// supply-token is worth.
var PricePrecision = big.NewInt(1_000_000_000)

var (
	// ErrStalePrice is returned when a cached price has aged past MaxAge.
	ErrStalePrice = errors.New("oracle: price is stale")
	// ErrPriceDeviation is returned when a fresh price moves further than
	// MaxDeviationBps from the last accepted price in one read.
	ErrPriceDeviation = errors.New("oracle: price deviation exceeds bound")
	// ErrInvalidPrice is returned for a nil or non-positive price.
	ErrInvalidPrice = errors.New("oracle: price must be positive")
)

// PriceReader reads the current supply/borrow price pair.
type PriceReader interface {
	ReadPrice(now int64) (*big.Int, error)
}

// Static is a fixed-price test double.
type Static struct {
	Price *big.Int
}

// ReadPrice always returns the configured fixed price.
func (s *Static) ReadPrice(now int64) (*big.Int, error) {
	if s.Price == nil || s.Price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	return new(big.Int).Set(s.Price), nil
}

// Cache wraps an upstream PriceReader with an age bound and a
// deviation-from-last-accepted-price bound, so a single bad or stale read
// from the underlying oracle cannot move the vault's collateral valuation
// by more than MaxDeviationBps in one call.
type Cache struct {
	Source          PriceReader
	MaxAgeSeconds   int64
	MaxDeviationBps int64

	lastPrice     *big.Int
	lastTimestamp int64
	hasPrice      bool
}

// ReadPrice fetches a fresh price from Source, validates it against the
// configured deviation bound, and caches it with now as its timestamp. The
// age bound is enforced by LastObserved, not here.
func (c *Cache) ReadPrice(now int64) (*big.Int, error) {
	price, err := c.Source.ReadPrice(now)
	if err != nil {
		return nil, err
	}
	if price == nil || price.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	if c.hasPrice && c.MaxDeviationBps > 0 {
		diff := new(big.Int).Sub(price, c.lastPrice)
		diff.Abs(diff)
		bound := new(big.Int).Mul(c.lastPrice, big.NewInt(c.MaxDeviationBps))
		bound.Quo(bound, big.NewInt(10_000))
		if diff.Cmp(bound) > 0 {
			return nil, ErrPriceDeviation
		}
	}
	c.lastPrice = price
	c.lastTimestamp = now
	c.hasPrice = true
	return price, nil
}

// LastObserved returns the most recently cached price, failing with
// ErrStalePrice if at now it has aged past MaxAgeSeconds.
func (c *Cache) LastObserved(now int64) (*big.Int, error) {
	if !c.hasPrice {
		return nil, ErrInvalidPrice
	}
	if c.MaxAgeSeconds > 0 && now-c.lastTimestamp > c.MaxAgeSeconds {
		return nil, ErrStalePrice
	}
	return new(big.Int).Set(c.lastPrice), nil
}
