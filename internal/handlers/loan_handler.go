package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prendasoft/prenda-api/internal/middleware"
	"github.com/prendasoft/prenda-api/internal/repository"
	"github.com/prendasoft/prenda-api/internal/services"
)

type LoanHandler struct {
	loanService *services.LoanService
}

func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

type NewLoanItemRequest struct {
	Description    string  `json:"description" binding:"required"`
	Category       *string `json:"category"`
	AppraisedValue float64 `json:"appraised_value" binding:"required"`
}

type NewLoanRequest struct {
	BranchID  uint                 `json:"branch_id" binding:"required"`
	PawnerID  uint                 `json:"pawner_id" binding:"required"`
	Principal float64              `json:"principal" binding:"required"`
	Items     []NewLoanItemRequest `json:"items" binding:"required"`
	RequestID string               `json:"request_id"`
}

// Create opens a new pawn loan
func (h *LoanHandler) Create(c *gin.Context) {
	var req NewLoanRequest
	if err := BindNestedOrFlat(c, "loan", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]services.NewLoanItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, services.NewLoanItemInput{
			Description:    it.Description,
			Category:       it.Category,
			AppraisedValue: it.AppraisedValue,
		})
	}

	txn, err := h.loanService.CreateNewLoan(c.Request.Context(), &services.NewLoanInput{
		BranchID:  req.BranchID,
		PawnerID:  req.PawnerID,
		Principal: req.Principal,
		Items:     items,
		RequestID: requestID(c, req.RequestID),
	}, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": txn.ToResponse()})
}

type AmountRequest struct {
	Amount    float64 `json:"amount" binding:"required"`
	RequestID string  `json:"request_id"`
}

// Additional grants an additional amount on an existing chain
func (h *LoanHandler) Additional(c *gin.Context) {
	var req AmountRequest
	if err := BindNestedOrFlat(c, "loan", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := h.loanService.AddToLoan(c.Request.Context(), c.Param("tracking_number"),
		req.Amount, requestID(c, req.RequestID), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": txn.ToResponse()})
}

// Pay records a partial payment against the outstanding balance
func (h *LoanHandler) Pay(c *gin.Context) {
	var req AmountRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := h.loanService.MakePartialPayment(c.Request.Context(), c.Param("tracking_number"),
		req.Amount, requestID(c, req.RequestID), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction": txn.ToResponse(),
		"new_balance": txn.Balance,
	})
}

type RenewRequest struct {
	RequestID string `json:"request_id"`
}

// Renew starts a fresh loan term on the outstanding balance. The body is
// optional; an empty one means no client request ID.
func (h *LoanHandler) Renew(c *gin.Context) {
	var req RenewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	txn, err := h.loanService.RenewLoan(c.Request.Context(), c.Param("tracking_number"),
		requestID(c, req.RequestID), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": txn.ToResponse()})
}

// Redeem settles the loan in full and releases the collateral
func (h *LoanHandler) Redeem(c *gin.Context) {
	var req AmountRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := h.loanService.RedeemLoan(c.Request.Context(), c.Param("tracking_number"),
		req.Amount, requestID(c, req.RequestID), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": txn.ToResponse()})
}

// Chain returns the full event history for a tracking number
func (h *LoanHandler) Chain(c *gin.Context) {
	chain, err := h.loanService.GetChain(c.Request.Context(), c.Param("tracking_number"))
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range chain {
		responses = append(responses, chain[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"transactions": responses})
}

// Items returns the collateral pledged on a chain
func (h *LoanHandler) Items(c *gin.Context) {
	items, err := h.loanService.GetItems(c.Request.Context(), c.Param("tracking_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Charges returns the charge breakdowns recorded for a chain
func (h *LoanHandler) Charges(c *gin.Context) {
	logs, err := h.loanService.GetCalculationLogs(c.Request.Context(), c.Param("tracking_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"calculations": logs})
}

// ShowByTicket looks up a single transaction by its printed number
func (h *LoanHandler) ShowByTicket(c *gin.Context) {
	txn, err := h.loanService.GetByTicketNumber(c.Request.Context(), c.Param("ticket_number"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn.ToResponse()})
}

// Index returns a paginated list of transactions
func (h *LoanHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search_term")
	query.Filters["status"] = c.Query("status")
	query.Filters["transaction_type"] = c.Query("transaction_type")
	query.Filters["branch_id"] = c.Query("branch_id")
	query.Filters["pawner_id"] = c.Query("pawner_id")

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	txns, total, err := h.loanService.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var responses []interface{}
	for i := range txns {
		responses = append(responses, txns[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// actorFrom builds the audit actor from the authenticated request
func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{
		ID:        middleware.GetUserID(c),
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// requestID prefers the body field, falling back to the Idempotency-Key header
func requestID(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return c.GetHeader("Idempotency-Key")
}
