package core

import "github.com/shopspring/decimal"

// CategoryTotal is the count and sum of investments of one category.
type CategoryTotal struct {
	Category Category
	Count    int
	Amount   decimal.Decimal
}

// Summary holds the dashboard aggregates over the full record set.
type Summary struct {
	TotalInvested decimal.Decimal
	TotalEntries  int
	Gold          CategoryTotal
	Silver        CategoryTotal
	// Average is TotalInvested / TotalEntries, zero when there are no entries.
	Average decimal.Decimal
	// Last is the most recent investment, nil when the set is empty.
	Last *Investment
}

// Summarize aggregates records ordered newest first.
func Summarize(records []Investment) Summary {
	s := Summary{
		TotalInvested: decimal.Zero,
		TotalEntries:  len(records),
		Gold:          CategoryTotal{Category: CategoryGold, Amount: decimal.Zero},
		Silver:        CategoryTotal{Category: CategorySilver, Amount: decimal.Zero},
		Average:       decimal.Zero,
	}
	for _, r := range records {
		s.TotalInvested = s.TotalInvested.Add(r.Amount)
		switch r.Category {
		case CategoryGold:
			s.Gold.Count++
			s.Gold.Amount = s.Gold.Amount.Add(r.Amount)
		case CategorySilver:
			s.Silver.Count++
			s.Silver.Amount = s.Silver.Amount.Add(r.Amount)
		}
	}
	if len(records) > 0 {
		s.Average = s.TotalInvested.Div(decimal.NewFromInt(int64(len(records))))
		last := records[0]
		s.Last = &last
	}
	return s
}

// Total sums the amounts of records.
func Total(records []Investment) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}
