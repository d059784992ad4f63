package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/provisora/internal/audit/domain"
	provisiondomain "github.com/smallbiznis/provisora/internal/provision/domain"
	"github.com/smallbiznis/provisora/internal/reconciliation"
	"github.com/smallbiznis/provisora/pkg/db/pagination"
)

type provisionView struct {
	provisiondomain.Provision
	Derived reconciliation.Derived `json:"derived"`
}

func (s *Server) view(p provisiondomain.Provision) provisionView {
	return provisionView{Provision: p, Derived: s.reconciliation.Derive(p)}
}

type createProvisionRequest struct {
	ContractID      json.Number `json:"contract_id"`
	ContractName    string      `json:"contract_name"`
	Description     string      `json:"description"`
	Month           int         `json:"month"`
	Year            int         `json:"year"`
	PredictedAmount amount      `json:"predicted_amount"`
	BilledAmount    amount      `json:"billed_amount"`
	ReceivedAmount  amount      `json:"received_amount"`
	Status          string      `json:"status"`
	DueDate         string      `json:"due_date"`
	Glosas          amount      `json:"glosas"`
	DescontoSLA     amount      `json:"desconto_sla"`
	VendaMOE        amount      `json:"venda_moe"`
	Outros          amount      `json:"outros"`
	Efetivo         int         `json:"efetivo"`
	FringePlanejado amount      `json:"fringe_planejado"`
	FringeExecutado amount      `json:"fringe_executado"`
}

func (r createProvisionRequest) amounts() map[string]amount {
	return map[string]amount{
		"predicted_amount": r.PredictedAmount,
		"billed_amount":    r.BilledAmount,
		"received_amount":  r.ReceivedAmount,
		"glosas":           r.Glosas,
		"desconto_sla":     r.DescontoSLA,
		"venda_moe":        r.VendaMOE,
		"outros":           r.Outros,
		"fringe_planejado": r.FringePlanejado,
		"fringe_executado": r.FringeExecutado,
	}
}

func (s *Server) CreateProvision(c *gin.Context) {
	var req createProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := invalidAmounts(req.amounts()); err != nil {
		AbortWithError(c, err)
		return
	}

	contractID, err := parseSnowflakeID(req.ContractID.String())
	if err != nil {
		AbortWithError(c, newValidationError("contract_id", "invalid_contract", "invalid contract_id"))
		return
	}
	dueDate, err := parseOptionalTime(req.DueDate)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	resp, err := s.provisionSvc.Create(c.Request.Context(), provisiondomain.CreateRequest{
		ContractID:      contractID,
		ContractName:    strings.TrimSpace(req.ContractName),
		Description:     strings.TrimSpace(req.Description),
		Month:           req.Month,
		Year:            req.Year,
		PredictedAmount: req.PredictedAmount.OrZero(),
		BilledAmount:    req.BilledAmount.OrZero(),
		ReceivedAmount:  req.ReceivedAmount.OrZero(),
		Status:          provisiondomain.Status(strings.TrimSpace(req.Status)),
		DueDate:         dueDate,
		Glosas:          req.Glosas.OrZero(),
		DescontoSLA:     req.DescontoSLA.OrZero(),
		VendaMOE:        req.VendaMOE.OrZero(),
		Outros:          req.Outros.OrZero(),
		Efetivo:         req.Efetivo,
		FringePlanejado: req.FringePlanejado.OrZero(),
		FringeExecutado: req.FringeExecutado.OrZero(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": s.view(resp)})
}

func (s *Server) ListProvisions(c *gin.Context) {
	f, err := bindProvisionFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records, err := s.source.ListProvisions(c.Request.Context(), f)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]provisionView, 0, len(records))
	for _, p := range records {
		views = append(views, s.view(p))
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}

func (s *Server) GetProvisionByID(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, provisiondomain.ErrNotFound)
		return
	}

	resp, err := s.provisionSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.view(resp)})
}

func (s *Server) GetProvisionByPeriod(c *gin.Context) {
	contractID, err := parseSnowflakeID(c.Param("contract_id"))
	if err != nil {
		AbortWithError(c, newValidationError("contract_id", "invalid_contract", "invalid contract_id"))
		return
	}
	year, yearErr := strconv.Atoi(c.Param("year"))
	month, monthErr := strconv.Atoi(c.Param("month"))
	if yearErr != nil || monthErr != nil {
		AbortWithError(c, provisiondomain.ErrInvalidPeriod)
		return
	}

	resp, err := s.provisionSvc.GetByPeriod(c.Request.Context(), contractID, month, year)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.view(resp)})
}

type updateProvisionRequest struct {
	Description     *string `json:"description"`
	BilledAmount    amount  `json:"billed_amount"`
	ReceivedAmount  amount  `json:"received_amount"`
	Status          *string `json:"status"`
	DueDate         *string `json:"due_date"`
	Glosas          amount  `json:"glosas"`
	DescontoSLA     amount  `json:"desconto_sla"`
	VendaMOE        amount  `json:"venda_moe"`
	Outros          amount  `json:"outros"`
	Efetivo         *int    `json:"efetivo"`
	FringePlanejado amount  `json:"fringe_planejado"`
	FringeExecutado amount  `json:"fringe_executado"`
}

func (r updateProvisionRequest) amounts() map[string]amount {
	return map[string]amount{
		"billed_amount":    r.BilledAmount,
		"received_amount":  r.ReceivedAmount,
		"glosas":           r.Glosas,
		"desconto_sla":     r.DescontoSLA,
		"venda_moe":        r.VendaMOE,
		"outros":           r.Outros,
		"fringe_planejado": r.FringePlanejado,
		"fringe_executado": r.FringeExecutado,
	}
}

func (s *Server) UpdateProvision(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, provisiondomain.ErrNotFound)
		return
	}

	var req updateProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if err := invalidAmounts(req.amounts()); err != nil {
		AbortWithError(c, err)
		return
	}

	update := provisiondomain.UpdateRequest{
		Description:     req.Description,
		BilledAmount:    req.BilledAmount.Ptr(),
		ReceivedAmount:  req.ReceivedAmount.Ptr(),
		Glosas:          req.Glosas.Ptr(),
		DescontoSLA:     req.DescontoSLA.Ptr(),
		VendaMOE:        req.VendaMOE.Ptr(),
		Outros:          req.Outros.Ptr(),
		Efetivo:         req.Efetivo,
		FringePlanejado: req.FringePlanejado.Ptr(),
		FringeExecutado: req.FringeExecutado.Ptr(),
	}
	if req.Status != nil {
		status := provisiondomain.Status(strings.TrimSpace(*req.Status))
		update.Status = &status
	}
	if req.DueDate != nil {
		dueDate, err := parseOptionalTime(*req.DueDate)
		if err != nil || dueDate == nil {
			AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
			return
		}
		update.DueDate = dueDate
	}

	resp, err := s.provisionSvc.Update(c.Request.Context(), id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": s.view(resp)})
}

func (s *Server) ListProvisionAudit(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, provisiondomain.ErrNotFound)
		return
	}

	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if _, err := s.provisionSvc.GetByID(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		TargetType: auditdomain.TargetProvision,
		TargetID:   id,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
