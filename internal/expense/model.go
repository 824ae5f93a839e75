package expense

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Item is one line of a bill or invoice. A zero Qty means one.
type Item struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Qty   int     `json:"qty,omitempty"`
}

// Expense is a bill or invoice, partitioned by the UPID scoping key of the
// profile it was recorded under.
type Expense struct {
	ID            uuid.UUID
	UPID          string
	BillID        *string
	Store         string
	StoreAddr     *string
	// Date is the issue date encoded as YYMMDD.
	Date          int
	// Time is the bill time encoded as HHMM, when known.
	Time          *int
	Items         []Item
	PaymentMethod *string
	Description   *string
	Currency      string
	Total         float64
	CreatedAt     time.Time
}

// Total sums the item prices in integer paise/pence to avoid accumulating
// float error, then converts back.
func Total(items []Item) float64 {
	cents := 0.0
	for _, item := range items {
		qty := item.Qty
		if qty == 0 {
			qty = 1
		}
		cents += math.Round(item.Price * 100 * float64(qty))
	}
	return cents / 100
}
