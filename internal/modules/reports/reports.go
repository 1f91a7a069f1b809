package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/georgemunganga/stockpdv/internal/modules/catalog"
)

// LowStock returns the products whose stock is at or below their threshold.
func LowStock(products []*catalog.Product) []LowStockRow {
	rows := []LowStockRow{}
	for _, p := range products {
		if p.CurrentStock <= p.MinStockThreshold {
			rows = append(rows, LowStockRow{
				ProductID:         p.ID,
				Name:              p.Name,
				CurrentStock:      p.CurrentStock,
				MinStockThreshold: p.MinStockThreshold,
			})
		}
	}
	return rows
}

// NearExpiry returns the products expiring between today and today+days,
// both inclusive, where today is the calendar day of now in loc. Products
// already past their date are not included.
func NearExpiry(products []*catalog.Product, now time.Time, loc *time.Location, days int) []ExpiryRow {
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	last := today.AddDate(0, 0, days)

	rows := []ExpiryRow{}
	for _, p := range products {
		if p.ExpiryDate == nil {
			continue
		}
		ey, em, ed := p.ExpiryDate.Date()
		expiry := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
		if expiry.Before(today) || expiry.After(last) {
			continue
		}
		rows = append(rows, ExpiryRow{
			ProductID:    p.ID,
			Name:         p.Name,
			ExpiryDate:   *p.ExpiryDate,
			DaysLeft:     int(expiry.Sub(today).Hours() / 24),
			CurrentStock: p.CurrentStock,
		})
	}
	return rows
}

// ProfitPotential is (sale price - purchase price) * stock per product,
// plus the sum over all of them.
func ProfitPotential(products []*catalog.Product) ProfitReport {
	report := ProfitReport{Rows: []ProfitRow{}, Total: decimal.Zero}
	for _, p := range products {
		unit := p.SalePrice.Sub(p.PurchasePrice)
		potential := unit.Mul(decimal.NewFromInt(int64(p.CurrentStock)))
		report.Rows = append(report.Rows, ProfitRow{
			ProductID:       p.ID,
			Name:            p.Name,
			UnitProfit:      unit,
			CurrentStock:    p.CurrentStock,
			PotentialProfit: potential,
		})
		report.Total = report.Total.Add(potential)
	}
	return report
}

// StartOfDay is midnight of now's calendar day in loc.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
