// Package ledger is the gateway to the remote transactions, investments and
// categories store. It validates input, translates between the camelCase
// model and the backend's PascalCase fields and keeps a per-user cache.
package ledger

import (
	"strings"

	"FinDesk/internal/metrics"
	"FinDesk/internal/model"
	"FinDesk/internal/recorder"
)

// Service groups the three ledger resources.
type Service struct {
	Transactions *Collection[model.Transaction, transactionWire]
	Investments  *Collection[model.Investment, investmentWire]
	Categories   *Collection[model.Category, categoryWire]
}

// NewService wires the resources to client. rec and m may be nil.
func NewService(client *Client, rec recorder.Recorder, m *metrics.Metrics) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	v := NewValidator()
	return &Service{
		Transactions: &Collection[model.Transaction, transactionWire]{
			name: "transactions", path: "/transactions",
			client: client, validate: v, rec: rec, metrics: m,
			prepare:  prepareTransaction,
			toWire:   transactionToWire,
			fromWire: transactionFromWire,
			items:    make(map[string][]model.Transaction),
		},
		Investments: &Collection[model.Investment, investmentWire]{
			name: "investments", path: "/investments",
			client: client, validate: v, rec: rec, metrics: m,
			prepare:  prepareInvestment,
			toWire:   investmentToWire,
			fromWire: investmentFromWire,
			items:    make(map[string][]model.Investment),
		},
		Categories: &Collection[model.Category, categoryWire]{
			name: "categories", path: "/categories",
			client: client, validate: v, rec: rec, metrics: m,
			prepare:  prepareCategory,
			toWire:   categoryToWire,
			fromWire: categoryFromWire,
			items:    make(map[string][]model.Category),
		},
	}
}

func prepareTransaction(t model.Transaction) model.Transaction {
	t.Description = strings.TrimSpace(t.Description)
	t.Date = strings.TrimSpace(t.Date)
	t.Notes = strings.TrimSpace(t.Notes)
	return t
}

func prepareInvestment(i model.Investment) model.Investment {
	i.Symbol = strings.ToUpper(strings.TrimSpace(i.Symbol))
	i.PurchaseDate = strings.TrimSpace(i.PurchaseDate)
	i.Notes = strings.TrimSpace(i.Notes)
	return i
}

func prepareCategory(c model.Category) model.Category {
	c.Name = strings.TrimSpace(c.Name)
	c.Kind = model.CategoryKind(strings.ToLower(strings.TrimSpace(string(c.Kind))))
	c.Color = strings.TrimSpace(c.Color)
	return c
}
