package services

import (
	"errors"
	"testing"
	"time"

	"salonpro-agenda/events"
	"salonpro-agenda/models"
	"salonpro-agenda/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func descriptions(txs []models.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.Description
	}
	return out
}

func TestRecordValidates(t *testing.T) {
	f := newFixture(t)
	income := f.category(t, f.tenant, "Serviços", models.TransactionIncome)
	foreign, err := f.registry.Create(f.ctx, f.other, "Cursos", models.TransactionIncome)
	require.NoError(t, err)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		in    RecordInput
		field string
	}{
		{"zero amount", RecordInput{Type: models.TransactionIncome, CategoryID: income.ID, Amount: decimal.Zero, Date: day}, "amount"},
		{"sub-cent amount", RecordInput{Type: models.TransactionIncome, CategoryID: income.ID, Amount: decimal.RequireFromString("0.004"), Date: day}, "amount"},
		{"three decimal places", RecordInput{Type: models.TransactionIncome, CategoryID: income.ID, Amount: decimal.RequireFromString("10.005"), Date: day}, "amount"},
		{"negative amount", RecordInput{Type: models.TransactionIncome, CategoryID: income.ID, Amount: decimal.NewFromInt(-5), Date: day}, "amount"},
		{"type mismatch", RecordInput{Type: models.TransactionExpense, CategoryID: income.ID, Amount: decimal.NewFromInt(5), Date: day}, "categoryId"},
		{"foreign category", RecordInput{Type: models.TransactionIncome, CategoryID: foreign.ID, Amount: decimal.NewFromInt(5), Date: day}, "categoryId"},
		{"unknown category", RecordInput{Type: models.TransactionIncome, CategoryID: uuid.New(), Amount: decimal.NewFromInt(5), Date: day}, "categoryId"},
		{"missing date", RecordInput{Type: models.TransactionIncome, CategoryID: income.ID, Amount: decimal.NewFromInt(5)}, "date"},
		{"bad type", RecordInput{Type: "refund", CategoryID: income.ID, Amount: decimal.NewFromInt(5), Date: day}, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Record(f.ctx, f.tenant, tt.in)
			var de *models.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, models.KindValidation, de.Kind)
			assert.Equal(t, tt.field, de.Field)
		})
	}
	assert.Zero(t, f.transactions.Len())
}

func TestRecordStoresCivilDateAndCategoryName(t *testing.T) {
	f := newFixture(t)
	tx, err := f.ledger.Record(f.ctx, f.tenant, RecordInput{
		Type:        models.TransactionExpense,
		CategoryID:  f.category(t, f.tenant, "Produtos", models.TransactionExpense).ID,
		Description: "  Shampoo  ",
		Amount:      decimal.RequireFromString("89.90"),
		Date:        at(2024, 1, 18, 22, 45),
	})
	require.NoError(t, err)
	assert.Equal(t, "Shampoo", tx.Description)
	assert.Equal(t, "Produtos", tx.CategoryName)
	assert.Equal(t, time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC), tx.Date)
}

func TestQueryLastSevenDays(t *testing.T) {
	f := newFixture(t)
	f.record(t, models.TransactionIncome, "Serviços", "80.00", "2024-01-10", "Escova")
	f.record(t, models.TransactionIncome, "Serviços", "50.00", "2024-01-16", "Corte")
	f.record(t, models.TransactionExpense, "Produtos", "30.00", "2024-01-20", "Tintura")

	txs, w, err := f.ledger.Query(f.ctx, f.tenant, TransactionFilter{Window: WindowLast7})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tintura", "Corte"}, descriptions(txs))
	assert.False(t, w.Contains(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)))
}

func TestQueryReadsStoredDayInServerZone(t *testing.T) {
	f := newFixture(t)
	f.record(t, models.TransactionIncome, "Serviços", "80.00", "2024-01-13", "Escova")
	f.record(t, models.TransactionIncome, "Serviços", "50.00", "2024-01-14", "Corte")
	f.record(t, models.TransactionExpense, "Produtos", "30.00", "2024-01-20", "Tintura")

	ledger := NewLedgerService(zonedTransactions{f.transactions}, f.registry, func() time.Time { return f.now }, zap.NewNop())
	txs, w, err := ledger.Query(f.ctx, f.tenant, TransactionFilter{Window: WindowLast7, Order: SortDateAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Corte", "Tintura"}, descriptions(txs))

	daily := Daily(txs, w)
	require.Len(t, daily, 7)
	assert.True(t, daily[0].Income.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, daily[6].Expense.Equal(decimal.RequireFromString("30.00")))
}

func TestQueryFilters(t *testing.T) {
	f := newFixture(t)
	f.record(t, models.TransactionIncome, "Serviços", "80.00", "2024-01-03", "Escova progressiva")
	f.record(t, models.TransactionIncome, "Produtos", "25.00", "2024-01-12", "Venda de óleo")
	f.record(t, models.TransactionExpense, "Produtos", "30.00", "2024-01-15", "Tintura")
	f.record(t, models.TransactionExpense, "Fixas", "1200.00", "2024-01-05", "Aluguel")
	f.record(t, models.TransactionIncome, "Serviços", "60.00", "2023-12-28", "Corte dezembro")

	tests := []struct {
		name   string
		filter TransactionFilter
		want   []string
	}{
		{"month default", TransactionFilter{}, []string{"Tintura", "Venda de óleo", "Aluguel", "Escova progressiva"}},
		{"income only", TransactionFilter{Type: TypeIncome}, []string{"Venda de óleo", "Escova progressiva"}},
		{"expense ascending", TransactionFilter{Type: TypeExpense, Order: SortDateAsc}, []string{"Aluguel", "Tintura"}},
		{"text in description", TransactionFilter{Text: "ESCOVA"}, []string{"Escova progressiva"}},
		{"text in category name", TransactionFilter{Text: "produtos"}, []string{"Tintura", "Venda de óleo"}},
		{"last 30 reaches december", TransactionFilter{Window: WindowLast30, Type: TypeIncome}, []string{"Venda de óleo", "Escova progressiva", "Corte dezembro"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, _, err := f.ledger.Query(f.ctx, f.tenant, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, descriptions(txs))
		})
	}
}

func TestQueryCustomWindow(t *testing.T) {
	f := newFixture(t)
	f.record(t, models.TransactionIncome, "Serviços", "80.00", "2024-01-03", "Escova")
	f.record(t, models.TransactionIncome, "Serviços", "50.00", "2024-01-16", "Corte")

	from, to := at(2024, 1, 1, 0, 0), at(2024, 1, 10, 0, 0)
	txs, w, err := f.ledger.Query(f.ctx, f.tenant, TransactionFilter{Window: WindowCustom, From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, []string{"Escova"}, descriptions(txs))
	assert.Equal(t, endOf(2024, 1, 10), w.End)

	_, _, err = f.ledger.Query(f.ctx, f.tenant, TransactionFilter{Window: WindowCustom, From: &to, To: &from})
	assert.True(t, errors.Is(err, models.ErrInvalidFilter))
}

func TestQueryRejectsUnknownFilters(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.ledger.Query(f.ctx, f.tenant, TransactionFilter{Window: "yesterday"})
	assert.True(t, errors.Is(err, models.ErrInvalidFilter))
	_, _, err = f.ledger.Query(f.ctx, f.tenant, TransactionFilter{Type: "transfers"})
	assert.True(t, errors.Is(err, models.ErrInvalidFilter))
	_, _, err = f.ledger.Query(f.ctx, f.tenant, TransactionFilter{Order: "amount"})
	assert.True(t, errors.Is(err, models.ErrInvalidFilter))
}

func TestQueryIsTenantScoped(t *testing.T) {
	f := newFixture(t)
	f.record(t, models.TransactionIncome, "Serviços", "80.00", "2024-01-03", "Escova")

	txs, _, err := f.ledger.Query(f.ctx, f.other, TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestUpdateRevalidates(t *testing.T) {
	f := newFixture(t)
	tx := f.record(t, models.TransactionExpense, "Produtos", "30.00", "2024-01-15", "Tintura")

	expense := models.TransactionExpense
	income := models.TransactionIncome
	_, err := f.ledger.Update(f.ctx, f.tenant, tx.ID, TransactionPatch{Type: &income})
	assert.True(t, errors.Is(err, models.ErrValidation))

	fixas := f.category(t, f.tenant, "Fixas", expense).ID
	amount := decimal.RequireFromString("45.50")
	updated, err := f.ledger.Update(f.ctx, f.tenant, tx.ID, TransactionPatch{CategoryID: &fixas, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "Fixas", updated.CategoryName)
	assert.True(t, amount.Equal(updated.Amount))

	stored, err := f.ledger.Get(f.ctx, f.tenant, tx.ID)
	require.NoError(t, err)
	assert.True(t, amount.Equal(stored.Amount))

	_, err = f.ledger.Update(f.ctx, f.other, tx.ID, TransactionPatch{Amount: &amount})
	assert.True(t, errors.Is(err, models.ErrPermission))
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	tx := f.record(t, models.TransactionExpense, "Produtos", "30.00", "2024-01-15", "Tintura")

	assert.True(t, errors.Is(f.ledger.Remove(f.ctx, f.other, tx.ID), models.ErrPermission))
	require.NoError(t, f.ledger.Remove(f.ctx, f.tenant, tx.ID))
	assert.True(t, errors.Is(f.ledger.Remove(f.ctx, f.tenant, tx.ID), models.ErrNotFound))
}

func TestStoreFailureIsNotApplied(t *testing.T) {
	f := newFixture(t)
	f.transactions.FailOn(store.OpInsert, errUnavailable)

	_, err := f.ledger.Record(f.ctx, f.tenant, RecordInput{
		Type:       models.TransactionIncome,
		CategoryID: f.category(t, f.tenant, "Serviços", models.TransactionIncome).ID,
		Amount:     decimal.NewFromInt(10),
		Date:       f.now,
	})
	assert.ErrorIs(t, err, errUnavailable)

	f.transactions.FailOn(store.OpInsert, nil)
	txs, _, err := f.ledger.Query(f.ctx, f.tenant, TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestHandlePaymentEventIsIdempotent(t *testing.T) {
	f := newFixture(t)
	apptID := uuid.New()
	e := events.NewPaymentRequested(events.PaymentRequest{
		TenantID:      f.tenant,
		AppointmentID: apptID,
		Amount:        decimal.RequireFromString("50.00"),
		Description:   "Corte - Ana",
		Date:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}, f.now)

	require.NoError(t, f.ledger.HandleEvent(f.ctx, e))
	require.NoError(t, f.ledger.HandleEvent(f.ctx, e))
	assert.Equal(t, 1, f.transactions.Len())

	tx, err := f.ledger.PaymentFor(f.ctx, f.tenant, apptID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionIncome, tx.Type)
	assert.Equal(t, f.category(t, f.tenant, "Serviços", models.TransactionIncome).ID, tx.CategoryID)
	assert.Equal(t, "Corte - Ana", tx.Description)
}

func TestHandleRemovedEventUnlinks(t *testing.T) {
	f := newFixture(t)
	apptID := uuid.New()
	require.NoError(t, f.ledger.HandleEvent(f.ctx, events.NewPaymentRequested(events.PaymentRequest{
		TenantID:      f.tenant,
		AppointmentID: apptID,
		Amount:        decimal.NewFromInt(50),
		Date:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}, f.now)))

	require.NoError(t, f.ledger.HandleEvent(f.ctx, events.NewAppointmentRemoved(f.tenant, apptID, f.now)))
	_, err := f.ledger.PaymentFor(f.ctx, f.tenant, apptID)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Equal(t, 1, f.transactions.Len())

	linked, err := f.ledger.LinkedTransactions(f.ctx, f.tenant)
	require.NoError(t, err)
	assert.Empty(t, linked)
}

func TestHandleEventRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	err := f.ledger.HandleEvent(f.ctx, events.Event{Kind: "appointment.moved", TenantID: f.tenant, AppointmentID: uuid.New()})
	assert.Error(t, err)
}
