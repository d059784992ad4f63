package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	costledgerdomain "github.com/smallbiznis/provisora/internal/costledger/domain"
	"github.com/smallbiznis/provisora/pkg/db/pagination"
)

type createCostEntryRequest struct {
	Date          string      `json:"date"`
	Category      string      `json:"category"`
	ContractID    json.Number `json:"contract_id"`
	Value         amount      `json:"value"`
	Status        string      `json:"status"`
	Supplier      string      `json:"supplier"`
	CostCenter    string      `json:"cost_center"`
	InvoiceNumber string      `json:"invoice_number"`
	DueDate       string      `json:"due_date"`
}

func (s *Server) CreateCostEntry(c *gin.Context) {
	var req createCostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.Value.Invalid {
		AbortWithError(c, &costledgerdomain.FieldError{Fields: []string{"value"}, Err: costledgerdomain.ErrInvalidAmount})
		return
	}

	date, err := parseOptionalTime(req.Date)
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_date", "invalid date"))
		return
	}
	dueDate, err := parseOptionalTime(req.DueDate)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}
	contractID, err := parseSnowflakeID(req.ContractID.String())
	if err != nil {
		AbortWithError(c, newValidationError("contract_id", "invalid_contract", "invalid contract_id"))
		return
	}

	var entryDate time.Time
	if date != nil {
		entryDate = *date
	}

	resp, err := s.costSvc.Create(c.Request.Context(), costledgerdomain.CreateRequest{
		Date:          entryDate,
		Category:      costledgerdomain.Category(strings.TrimSpace(req.Category)),
		ContractID:    contractID,
		Value:         req.Value.OrZero(),
		Status:        costledgerdomain.Status(strings.TrimSpace(req.Status)),
		Supplier:      req.Supplier,
		CostCenter:    req.CostCenter,
		InvoiceNumber: req.InvoiceNumber,
		DueDate:       dueDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCostEntries(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	f, err := bindCostEntryFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.costSvc.List(c.Request.Context(), costledgerdomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(page.PageToken),
			PageSize:  page.PageSize,
		},
		Filter: f,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCostEntryByID(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, costledgerdomain.ErrNotFound)
		return
	}

	resp, err := s.costSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateCostEntryStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) UpdateCostEntryStatus(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, costledgerdomain.ErrNotFound)
		return
	}

	var req updateCostEntryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.costSvc.UpdateStatus(c.Request.Context(), id, costledgerdomain.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
