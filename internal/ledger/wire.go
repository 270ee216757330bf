package ledger

import (
	"github.com/shopspring/decimal"

	"FinDesk/internal/model"
)

// The backend speaks PascalCase. These structs are the only place that
// shape appears.

type transactionWire struct {
	Id          int     `json:"Id,omitempty"`
	Description string  `json:"Description"`
	Amount      float64 `json:"Amount"`
	Date        string  `json:"Date"`
	CategoryId  int     `json:"CategoryId"`
	Notes       string  `json:"Notes,omitempty"`
}

func transactionToWire(t model.Transaction) transactionWire {
	return transactionWire{
		Id:          t.ID,
		Description: t.Description,
		Amount:      t.Amount.InexactFloat64(),
		Date:        t.Date,
		CategoryId:  t.CategoryID,
		Notes:       t.Notes,
	}
}

func transactionFromWire(w transactionWire) model.Transaction {
	return model.Transaction{
		ID:          w.Id,
		Description: w.Description,
		Amount:      decimal.NewFromFloat(w.Amount),
		Date:        wireDate(w.Date),
		CategoryID:  w.CategoryId,
		Notes:       w.Notes,
	}
}

type investmentWire struct {
	Id            int     `json:"Id,omitempty"`
	Symbol        string  `json:"Symbol"`
	Shares        float64 `json:"Shares"`
	PurchasePrice float64 `json:"PurchasePrice"`
	PurchaseDate  string  `json:"PurchaseDate"`
	Notes         string  `json:"Notes,omitempty"`
}

func investmentToWire(i model.Investment) investmentWire {
	return investmentWire{
		Id:            i.ID,
		Symbol:        i.Symbol,
		Shares:        i.Shares.InexactFloat64(),
		PurchasePrice: i.PurchasePrice.InexactFloat64(),
		PurchaseDate:  i.PurchaseDate,
		Notes:         i.Notes,
	}
}

func investmentFromWire(w investmentWire) model.Investment {
	return model.Investment{
		ID:            w.Id,
		Symbol:        w.Symbol,
		Shares:        decimal.NewFromFloat(w.Shares),
		PurchasePrice: decimal.NewFromFloat(w.PurchasePrice),
		PurchaseDate:  wireDate(w.PurchaseDate),
		Notes:         w.Notes,
	}
}

type categoryWire struct {
	Id    int    `json:"Id,omitempty"`
	Name  string `json:"Name"`
	Type  string `json:"Type"`
	Color string `json:"Color,omitempty"`
}

func categoryToWire(c model.Category) categoryWire {
	return categoryWire{Id: c.ID, Name: c.Name, Type: string(c.Kind), Color: c.Color}
}

func categoryFromWire(w categoryWire) model.Category {
	return model.Category{ID: w.Id, Name: w.Name, Kind: model.CategoryKind(w.Type), Color: w.Color}
}

// wireDate keeps the calendar part of backend timestamps such as
// "2024-05-01T00:00:00".
func wireDate(s string) string {
	if len(s) > len(model.DateLayout) {
		return s[:len(model.DateLayout)]
	}
	return s
}
