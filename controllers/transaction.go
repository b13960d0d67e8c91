// controllers/transaction.go
package controllers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"salonpro-agenda/models"
	"salonpro-agenda/services"
	"salonpro-agenda/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTransactionInput defines the expected JSON structure for a ledger entry
type CreateTransactionInput struct {
	Type          string           `json:"type" binding:"required"`
	CategoryID    uuid.UUID        `json:"categoryId" binding:"required"`
	Description   string           `json:"description"`
	Amount        *decimal.Decimal `json:"amount" binding:"required"`
	Date          string           `json:"date" binding:"required"` // YYYY-MM-DD
	AppointmentID *uuid.UUID       `json:"appointmentId"`
}

// UpdateTransactionInput defines the fields a ledger update may change
type UpdateTransactionInput struct {
	Type        *string          `json:"type"`
	CategoryID  *uuid.UUID       `json:"categoryId"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date"`
}

// TransactionController serves the ledger
type TransactionController struct {
	ledger *services.LedgerService
	now    func() time.Time
}

func NewTransactionController(ledger *services.LedgerService, now func() time.Time) *TransactionController {
	return &TransactionController{ledger: ledger, now: now}
}

// Create records a manual income or expense
func (tc *TransactionController) Create(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	var input CreateTransactionInput
	if !bindJSON(c, &input) {
		return
	}
	typ, err := models.ParseTransactionType(input.Type)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Invalid transaction type")
		return
	}
	date, err := utils.ParseDate(input.Date)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	tx, err := tc.ledger.Record(c.Request.Context(), tenantID, services.RecordInput{
		Type:          typ,
		CategoryID:    input.CategoryID,
		Description:   input.Description,
		Amount:        *input.Amount,
		Date:          date,
		AppointmentID: input.AppointmentID,
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to record transaction")
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// List filters by ?window (or ?from&to), ?type, ?search and ?order and
// returns the matching rows with their totals.
func (tc *TransactionController) List(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	txs, window, ok := tc.query(c, tenantID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"window":       window,
		"summary":      services.Summarize(txs),
		"transactions": txs,
	})
}

// Get retrieves a single transaction by ID
func (tc *TransactionController) Get(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "transaction")
	if !ok {
		return
	}
	tx, err := tc.ledger.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Database error")
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Update re-validates and saves a transaction
func (tc *TransactionController) Update(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "transaction")
	if !ok {
		return
	}
	var input UpdateTransactionInput
	if !bindJSON(c, &input) {
		return
	}

	patch := services.TransactionPatch{
		CategoryID:  input.CategoryID,
		Description: input.Description,
		Amount:      input.Amount,
	}
	if input.Type != nil {
		typ, err := models.ParseTransactionType(*input.Type)
		if err != nil {
			utils.RespondWithDomainError(c, err, "Invalid transaction type")
			return
		}
		patch.Type = &typ
	}
	if input.Date != nil {
		date, err := utils.ParseDate(*input.Date)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		patch.Date = &date
	}

	tx, err := tc.ledger.Update(c.Request.Context(), tenantID, id, patch)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to update transaction")
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Delete removes a transaction
func (tc *TransactionController) Delete(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "transaction")
	if !ok {
		return
	}
	if err := tc.ledger.Remove(c.Request.Context(), tenantID, id); err != nil {
		utils.RespondWithDomainError(c, err, "Failed to delete transaction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// Export downloads the filtered ledger as xlsx, or csv with ?format=csv.
func (tc *TransactionController) Export(c *gin.Context) {
	tenantID, ok := tenantFrom(c)
	if !ok {
		return
	}
	txs, window, ok := tc.query(c, tenantID)
	if !ok {
		return
	}
	stamp := fmt.Sprintf("%s_%s", window.FirstDay().Format(utils.DateLayout), window.LastDay().Format(utils.DateLayout))

	if strings.EqualFold(c.Query("format"), "csv") {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transacoes_%s.csv\"", stamp))
		c.Status(http.StatusOK)
		if err := writeLedgerCSV(c.Writer, txs); err != nil {
			_ = c.Error(err)
		}
		return
	}

	f, err := services.BuildLedgerWorkbook(txs, window)
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to build export")
		return
	}
	defer f.Close()
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transacoes_%s.xlsx\"", stamp))
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// writeLedgerCSV writes a UTF-8 BOM so spreadsheet apps detect the encoding.
func writeLedgerCSV(out io.Writer, txs []models.Transaction) error {
	if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	w := csv.NewWriter(out)
	if err := w.Write([]string{"Data", "Tipo", "Categoria", "Descrição", "Valor"}); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, tx := range txs {
		err := w.Write([]string{
			utils.StoredDay(tx.Date).Format(utils.DateLayout),
			string(tx.Type),
			tx.CategoryName,
			tx.Description,
			tx.Amount.StringFixed(2),
		})
		if err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func (tc *TransactionController) query(c *gin.Context, tenantID uuid.UUID) ([]models.Transaction, services.Window, bool) {
	sel, from, to, ok := windowQuery(c, tc.now().Location())
	if !ok {
		return nil, services.Window{}, false
	}
	txs, window, err := tc.ledger.Query(c.Request.Context(), tenantID, services.TransactionFilter{
		Window: sel,
		From:   from,
		To:     to,
		Type:   services.TypeFilter(strings.ToLower(c.Query("type"))),
		Text:   c.Query("search"),
		Order:  services.SortOrder(strings.ToLower(c.Query("order"))),
	})
	if err != nil {
		utils.RespondWithDomainError(c, err, "Failed to retrieve transactions")
		return nil, services.Window{}, false
	}
	return txs, window, true
}
