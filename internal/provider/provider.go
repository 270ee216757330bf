// Package provider normalizes the interchangeable market-data sources behind
// a single Provider capability.
package provider

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"FinDesk/internal/model"
)

// Provider fetches quotes and historical series for a symbol.
type Provider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*model.Quote, error)
	GetHistorical(ctx context.Context, symbol string, tf model.Timeframe) (*model.HistoricalSeries, error)
}

var (
	// ErrProviderUnavailable matches every UnavailableError.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrNoData means the upstream answered but knows nothing about the symbol.
	ErrNoData = errors.New("no data for symbol")
	// ErrInvalidSymbol is returned for empty or malformed tickers.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// UnavailableError reports a network or upstream failure of a provider.
type UnavailableError struct {
	Provider string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Provider, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrProviderUnavailable) match.
func (e *UnavailableError) Is(target error) bool { return target == ErrProviderUnavailable }

func unavailable(provider string, err error) error {
	return &UnavailableError{Provider: provider, Err: err}
}

func noData(provider, symbol string) error {
	return fmt.Errorf("%s: %s: %w", provider, symbol, ErrNoData)
}

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^:]{0,14}$`)

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidateSymbol checks a normalized ticker.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("%w: symbol cannot be empty", ErrInvalidSymbol)
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}

// CleanSymbol normalizes and validates in one step.
func CleanSymbol(symbol string) (string, error) {
	s := NormalizeSymbol(symbol)
	if err := ValidateSymbol(s); err != nil {
		return "", err
	}
	return s, nil
}
