package services

import (
	"fmt"

	"salonpro-agenda/models"
	"salonpro-agenda/utils"

	"github.com/xuri/excelize/v2"
)

const (
	TransactionsSheet = "Transações"
	SummarySheet      = "Resumo"
)

// BuildLedgerWorkbook renders the transactions of a window plus their totals
// into a workbook with one sheet each.
func BuildLedgerWorkbook(txs []models.Transaction, w Window) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), TransactionsSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	headers := []string{"Data", "Tipo", "Categoria", "Descrição", "Valor"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(TransactionsSheet, cell, h); err != nil {
			return nil, err
		}
	}
	for i, tx := range txs {
		row := i + 2
		amount, _ := tx.Amount.Float64()
		if tx.Type == models.TransactionExpense {
			amount = -amount
		}
		values := []any{utils.StoredDay(tx.Date).Format(utils.DateLayout), typeLabel(tx.Type), tx.CategoryName, tx.Description, amount}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(TransactionsSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	for col, width := range map[string]float64{"A": 12, "B": 10, "C": 18, "D": 40, "E": 14} {
		if err := f.SetColWidth(TransactionsSheet, col, col, width); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	summary := Summarize(txs)
	income, _ := summary.Income.Float64()
	expense, _ := summary.Expense.Float64()
	net, _ := summary.Net.Float64()
	margin, _ := summary.Margin.Float64()
	rows := [][]any{
		{"Período", fmt.Sprintf("%s a %s", w.FirstDay().Format(utils.DateLayout), w.LastDay().Format(utils.DateLayout))},
		{"Receitas", income},
		{"Despesas", expense},
		{"Saldo", net},
		{"Margem", margin},
		{"Lançamentos", summary.Count},
	}
	for i, r := range rows {
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+1), &r); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(SummarySheet, "A", "B", 24); err != nil {
		return nil, err
	}
	return f, nil
}

func typeLabel(t models.TransactionType) string {
	switch t {
	case models.TransactionIncome:
		return "Receita"
	case models.TransactionExpense:
		return "Despesa"
	}
	return string(t)
}
