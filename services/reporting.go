// services/reporting.go
package services

import (
	"sort"
	"time"

	"salonpro-agenda/models"
	"salonpro-agenda/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Summary totals a set of transactions.
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
	Margin  decimal.Decimal `json:"margin"`
	Count   int             `json:"count"`
}

// Summarize totals a set of transactions. Margin is net over income, zero
// when there is no income.
func Summarize(txs []models.Transaction) Summary {
	s := Summary{Income: decimal.Zero, Expense: decimal.Zero, Margin: decimal.Zero, Count: len(txs)}
	for _, tx := range txs {
		switch tx.Type {
		case models.TransactionIncome:
			s.Income = s.Income.Add(tx.Amount)
		case models.TransactionExpense:
			s.Expense = s.Expense.Add(tx.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	if s.Income.IsPositive() {
		s.Margin = s.Net.DivRound(s.Income, 4)
	}
	return s
}

type CategoryTotal struct {
	CategoryID   uuid.UUID              `json:"categoryId"`
	CategoryName string                 `json:"categoryName"`
	Type         models.TransactionType `json:"type"`
	Total        decimal.Decimal        `json:"total"`
	Count        int                    `json:"count"`
}

// ByCategory groups amounts per category, largest first.
func ByCategory(txs []models.Transaction) []CategoryTotal {
	index := make(map[uuid.UUID]int)
	var out []CategoryTotal
	for _, tx := range txs {
		i, ok := index[tx.CategoryID]
		if !ok {
			i = len(out)
			index[tx.CategoryID] = i
			out = append(out, CategoryTotal{
				CategoryID:   tx.CategoryID,
				CategoryName: tx.CategoryName,
				Type:         tx.Type,
				Total:        decimal.Zero,
			})
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}

type DailyTotal struct {
	Date    time.Time       `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// Daily returns one point per day of w, including days without movement.
func Daily(txs []models.Transaction, w Window) []DailyTotal {
	days := w.Days()
	out := make([]DailyTotal, len(days))
	index := make(map[time.Time]int, len(days))
	for i, d := range days {
		out[i] = DailyTotal{Date: d, Income: decimal.Zero, Expense: decimal.Zero}
		index[d] = i
	}
	for _, tx := range txs {
		i, ok := index[utils.StoredDay(tx.Date)]
		if !ok {
			continue
		}
		switch tx.Type {
		case models.TransactionIncome:
			out[i].Income = out[i].Income.Add(tx.Amount)
		case models.TransactionExpense:
			out[i].Expense = out[i].Expense.Add(tx.Amount)
		}
	}
	return out
}

// GrowthPercentage compares two period totals; growth from nothing counts as 100%.
func GrowthPercentage(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(100)
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}

type PeriodRevenue struct {
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
	Growth   decimal.Decimal `json:"growth"`
}

// RevenueReport compares income of the current month, quarter and year with
// the period before each.
type RevenueReport struct {
	Month   PeriodRevenue `json:"month"`
	Quarter PeriodRevenue `json:"quarter"`
	Year    PeriodRevenue `json:"year"`
}

// RevenueWindow spans every day BuildRevenueReport looks at: January 1st of
// last year through the end of the current year.
func RevenueWindow(now time.Time) Window {
	return Window{
		Start: time.Date(now.Year()-1, 1, 1, 0, 0, 0, 0, now.Location()),
		End:   utils.EndOfDay(time.Date(now.Year(), 12, 31, 0, 0, 0, 0, now.Location())),
	}
}

// BuildRevenueReport compares month, quarter and year income with the previous period.
func BuildRevenueReport(txs []models.Transaction, now time.Time) RevenueReport {
	month := utils.FirstOfMonth(now)
	quarter := utils.QuarterStart(now)
	year := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	period := func(start, end, prevStart, prevEnd time.Time) PeriodRevenue {
		cur := incomeWithin(txs, start, end)
		prev := incomeWithin(txs, prevStart, prevEnd)
		return PeriodRevenue{Current: cur, Previous: prev, Growth: GrowthPercentage(cur, prev)}
	}
	return RevenueReport{
		Month: period(month, utils.LastOfMonth(now),
			month.AddDate(0, -1, 0), month.AddDate(0, 0, -1)),
		Quarter: period(quarter, utils.QuarterEnd(now),
			quarter.AddDate(0, -3, 0), quarter.AddDate(0, 0, -1)),
		Year: period(year, year.AddDate(1, 0, -1),
			year.AddDate(-1, 0, 0), year.AddDate(0, 0, -1)),
	}
}

func incomeWithin(txs []models.Transaction, start, end time.Time) decimal.Decimal {
	w := Window{Start: start, End: utils.EndOfDay(end)}
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == models.TransactionIncome && w.Contains(tx.Date) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// ServiceTotal is the completed-appointment volume of one service.
type ServiceTotal struct {
	ServiceID   uuid.UUID       `json:"serviceId"`
	ServiceName string          `json:"serviceName"`
	Count       int             `json:"count"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// TopServices ranks services by the paid amount of completed appointments,
// then by count. limit <= 0 returns every service.
func TopServices(appts []models.Appointment, limit int) []ServiceTotal {
	totals := map[uuid.UUID]*ServiceTotal{}
	var order []uuid.UUID
	for _, a := range appts {
		if a.Status != models.StatusCompleted {
			continue
		}
		t, ok := totals[a.ServiceID]
		if !ok {
			t = &ServiceTotal{ServiceID: a.ServiceID, ServiceName: a.ServiceName, Revenue: decimal.Zero}
			totals[a.ServiceID] = t
			order = append(order, a.ServiceID)
		}
		t.Count++
		if a.PaidAmount != nil {
			t.Revenue = t.Revenue.Add(*a.PaidAmount)
		}
	}

	out := make([]ServiceTotal, 0, len(order))
	for _, id := range order {
		out = append(out, *totals[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Count > out[j].Count
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
