// services/ledger_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"salonpro-agenda/events"
	"salonpro-agenda/metrics"
	"salonpro-agenda/models"
	"salonpro-agenda/store"
	"salonpro-agenda/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TypeFilter restricts a ledger query to one transaction type.
type TypeFilter string

const (
	TypeAll     TypeFilter = "all"
	TypeIncome  TypeFilter = "income"
	TypeExpense TypeFilter = "expense"
)

type SortOrder string

const (
	SortDateDesc SortOrder = "date-desc"
	SortDateAsc  SortOrder = "date-asc"
)

// TransactionFilter narrows Query; zero fields mean this month, all types, newest first.
type TransactionFilter struct {
	Window WindowSelector
	From   *time.Time
	To     *time.Time
	Type   TypeFilter
	Text   string
	Order  SortOrder
}

// RecordInput is a ledger entry before validation.
type RecordInput struct {
	Type          models.TransactionType
	CategoryID    uuid.UUID
	Description   string
	Amount        decimal.Decimal
	Date          time.Time
	AppointmentID *uuid.UUID
}

// TransactionPatch holds the fields to change; nil fields are left alone.
type TransactionPatch struct {
	Type        *models.TransactionType
	CategoryID  *uuid.UUID
	Description *string
	Amount      *decimal.Decimal
	Date        *time.Time
}

// LedgerService owns income and expense transactions.
type LedgerService struct {
	transactions store.Repository[models.Transaction]
	categories   *CategoryRegistry
	now          func() time.Time
	log          *zap.Logger
}

func NewLedgerService(
	transactions store.Repository[models.Transaction],
	categories *CategoryRegistry,
	now func() time.Time,
	log *zap.Logger,
) *LedgerService {
	return &LedgerService{transactions: transactions, categories: categories, now: now, log: log}
}

// Record validates and stores a transaction.
func (l *LedgerService) Record(ctx context.Context, tenantID uuid.UUID, in RecordInput) (*models.Transaction, error) {
	tx := models.Transaction{
		Base:          models.Base{TenantID: tenantID},
		Type:          in.Type,
		CategoryID:    in.CategoryID,
		Description:   strings.TrimSpace(in.Description),
		Amount:        in.Amount,
		Date:          utils.CivilDate(in.Date),
		AppointmentID: in.AppointmentID,
	}
	category, err := l.validate(ctx, tenantID, tx)
	if err != nil {
		return nil, err
	}
	if err := l.transactions.Insert(ctx, tenantID, &tx); err != nil {
		return nil, storeError(err, "transaction", uuid.Nil)
	}
	tx.CategoryName = category.Name

	metrics.TransactionsRecorded.WithLabelValues(string(tx.Type)).Inc()
	l.log.Info("transaction recorded",
		zap.Stringer("tenant_id", tenantID),
		zap.Stringer("transaction_id", tx.ID),
		zap.String("type", string(tx.Type)),
		zap.String("amount", tx.Amount.StringFixed(2)))
	return &tx, nil
}

func (l *LedgerService) Get(ctx context.Context, tenantID, id uuid.UUID) (*models.Transaction, error) {
	tx, err := l.transactions.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "transaction", id)
	}
	if c, err := l.categories.Get(ctx, tenantID, tx.CategoryID); err == nil {
		tx.CategoryName = c.Name
	}
	return &tx, nil
}

// Update merges patch into the stored transaction and re-validates the result.
func (l *LedgerService) Update(ctx context.Context, tenantID, id uuid.UUID, patch TransactionPatch) (*models.Transaction, error) {
	tx, err := l.transactions.Get(ctx, tenantID, id)
	if err != nil {
		return nil, storeError(err, "transaction", id)
	}
	if patch.Type != nil {
		tx.Type = *patch.Type
	}
	if patch.CategoryID != nil {
		tx.CategoryID = *patch.CategoryID
	}
	if patch.Description != nil {
		tx.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Date != nil {
		tx.Date = utils.CivilDate(*patch.Date)
	}

	category, err := l.validate(ctx, tenantID, tx)
	if err != nil {
		return nil, err
	}
	if err := l.transactions.Update(ctx, tenantID, &tx); err != nil {
		return nil, storeError(err, "transaction", id)
	}
	tx.CategoryName = category.Name
	return &tx, nil
}

// Remove deletes the transaction only; a referenced appointment keeps its status and payment.
func (l *LedgerService) Remove(ctx context.Context, tenantID, id uuid.UUID) error {
	tx, err := l.transactions.Get(ctx, tenantID, id)
	if err != nil {
		return storeError(err, "transaction", id)
	}
	if err := l.transactions.Delete(ctx, tenantID, id); err != nil {
		return storeError(err, "transaction", id)
	}
	fields := []zap.Field{zap.Stringer("tenant_id", tenantID), zap.Stringer("transaction_id", id)}
	if tx.AppointmentID != nil {
		fields = append(fields, zap.Stringer("appointment_id", *tx.AppointmentID))
	}
	l.log.Info("transaction removed", fields...)
	return nil
}

// Query returns the transactions matching f together with the resolved window.
func (l *LedgerService) Query(ctx context.Context, tenantID uuid.UUID, f TransactionFilter) ([]models.Transaction, Window, error) {
	sel := f.Window
	if sel == "" {
		sel = WindowThisMonth
	}
	window, err := ResolveWindow(sel, f.From, f.To, l.now())
	if err != nil {
		return nil, Window{}, err
	}
	typ := f.Type
	if typ == "" {
		typ = TypeAll
	}
	order := f.Order
	if order == "" {
		order = SortDateDesc
	}

	filter := store.Filter{}.Between("date", window.FirstDay(), window.LastDay())
	switch typ {
	case TypeAll:
	case TypeIncome:
		filter = filter.And("type", models.TransactionIncome)
	case TypeExpense:
		filter = filter.And("type", models.TransactionExpense)
	default:
		return nil, Window{}, models.NewInvalidFilterError("type", string(typ))
	}
	switch order {
	case SortDateDesc, SortDateAsc:
	default:
		return nil, Window{}, models.NewInvalidFilterError("order", string(order))
	}

	rows, err := l.transactions.Find(ctx, tenantID, filter)
	if err != nil {
		return nil, Window{}, storeError(err, "transaction", uuid.Nil)
	}
	names, err := l.categoryNames(ctx, tenantID)
	if err != nil {
		return nil, Window{}, err
	}

	out := make([]models.Transaction, 0, len(rows))
	for _, tx := range rows {
		tx.CategoryName = names[tx.CategoryID]
		if MatchesTransaction(tx, window, typ, f.Text) {
			out = append(out, tx)
		}
	}
	SortTransactions(out, order)
	return out, window, nil
}

// MatchesTransaction applies the ledger filter to a transaction whose
// CategoryName is already resolved.
func MatchesTransaction(tx models.Transaction, w Window, typ TypeFilter, text string) bool {
	if !w.Contains(tx.Date) {
		return false
	}
	switch typ {
	case TypeAll, "":
	case TypeIncome:
		if tx.Type != models.TransactionIncome {
			return false
		}
	case TypeExpense:
		if tx.Type != models.TransactionExpense {
			return false
		}
	default:
		return false
	}
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(tx.Description), text) ||
		strings.Contains(strings.ToLower(tx.CategoryName), text)
}

func SortTransactions(txs []models.Transaction, order SortOrder) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date) {
			if order == SortDateAsc {
				return a.Date.Before(b.Date)
			}
			return a.Date.After(b.Date)
		}
		if order == SortDateAsc {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// PaymentFor returns the transaction recorded for an appointment, if any.
func (l *LedgerService) PaymentFor(ctx context.Context, tenantID, appointmentID uuid.UUID) (*models.Transaction, error) {
	rows, err := l.transactions.Find(ctx, tenantID, store.Where("appointment_id", appointmentID))
	if err != nil {
		return nil, storeError(err, "transaction", uuid.Nil)
	}
	if len(rows) == 0 {
		return nil, models.NewNotFoundError("transaction", "")
	}
	return &rows[0], nil
}

// HandleEvent applies scheduler events to the ledger. Both kinds are idempotent.
func (l *LedgerService) HandleEvent(ctx context.Context, e events.Event) error {
	switch e.Kind {
	case events.KindPaymentRequested:
		_, err := l.RecordAppointmentPayment(ctx, e)
		return err
	case events.KindAppointmentRemoved:
		return l.UnlinkAppointment(ctx, e.TenantID, e.AppointmentID)
	}
	return fmt.Errorf("unsupported event kind %q", e.Kind)
}

// RecordAppointmentPayment books the income of a completed appointment under
// the services category unless it was already booked.
func (l *LedgerService) RecordAppointmentPayment(ctx context.Context, e events.Event) (*models.Transaction, error) {
	existing, err := l.PaymentFor(ctx, e.TenantID, e.AppointmentID)
	if err == nil {
		l.log.Debug("appointment payment already recorded",
			zap.Stringer("appointment_id", e.AppointmentID),
			zap.Stringer("transaction_id", existing.ID))
		return existing, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	category, err := l.categories.FindByName(ctx, e.TenantID, models.ServicesCategory, models.TransactionIncome)
	if err != nil {
		return nil, fmt.Errorf("resolve %s category: %w", models.ServicesCategory, err)
	}
	appointmentID := e.AppointmentID
	return l.Record(ctx, e.TenantID, RecordInput{
		Type:          models.TransactionIncome,
		CategoryID:    category.ID,
		Description:   e.Description,
		Amount:        e.Amount,
		Date:          e.Date,
		AppointmentID: &appointmentID,
	})
}

// LinkedTransactions returns every transaction that still references an appointment.
func (l *LedgerService) LinkedTransactions(ctx context.Context, tenantID uuid.UUID) ([]models.Transaction, error) {
	rows, err := l.transactions.Find(ctx, tenantID, store.Filter{})
	if err != nil {
		return nil, storeError(err, "transaction", uuid.Nil)
	}
	out := rows[:0]
	for _, tx := range rows {
		if tx.AppointmentID != nil {
			out = append(out, tx)
		}
	}
	return out, nil
}

// UnlinkAppointment clears the back-reference on every transaction pointing at the appointment.
func (l *LedgerService) UnlinkAppointment(ctx context.Context, tenantID, appointmentID uuid.UUID) error {
	rows, err := l.transactions.Find(ctx, tenantID, store.Where("appointment_id", appointmentID))
	if err != nil {
		return storeError(err, "transaction", uuid.Nil)
	}
	var errs []error
	for i := range rows {
		rows[i].AppointmentID = nil
		if err := l.transactions.Update(ctx, tenantID, &rows[i]); err != nil {
			errs = append(errs, storeError(err, "transaction", rows[i].ID))
		}
	}
	return errors.Join(errs...)
}

func (l *LedgerService) validate(ctx context.Context, tenantID uuid.UUID, tx models.Transaction) (*models.Category, error) {
	if !tx.Type.Valid() {
		return nil, models.NewValidationError("type", "must be income or expense")
	}
	if !tx.Amount.IsPositive() {
		return nil, models.NewValidationError("amount", "must be greater than zero")
	}
	if !models.FitsMoneyScale(tx.Amount) {
		return nil, models.NewValidationError("amount", "must have at most two decimal places")
	}
	if tx.Date.IsZero() {
		return nil, models.NewValidationError("date", "is required")
	}
	if tx.CategoryID == uuid.Nil {
		return nil, models.NewValidationError("categoryId", "is required")
	}

	category, err := l.categories.Get(ctx, tenantID, tx.CategoryID)
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrPermission) {
		return nil, models.NewValidationError("categoryId", "category is not available to this tenant")
	}
	if err != nil {
		return nil, err
	}
	if category.Type != tx.Type {
		return nil, models.NewValidationError("categoryId",
			fmt.Sprintf("%s category cannot hold a %s transaction", category.Type, tx.Type))
	}
	return category, nil
}

func (l *LedgerService) categoryNames(ctx context.Context, tenantID uuid.UUID) (map[uuid.UUID]string, error) {
	all, err := l.categories.ListAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(all))
	for _, c := range all {
		names[c.ID] = c.Name
	}
	return names, nil
}
