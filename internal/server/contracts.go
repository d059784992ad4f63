package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	contractdomain "github.com/smallbiznis/provisora/internal/contract/domain"
	"github.com/smallbiznis/provisora/internal/filter"
	workforcedomain "github.com/smallbiznis/provisora/internal/workforce/domain"
)

func (s *Server) ListContracts(c *gin.Context) {
	resp, err := s.contractSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetContractFringe(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, contractdomain.ErrNotFound)
		return
	}
	if _, err := s.contractSvc.Lookup(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.workforceSvc.FringeSummary(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type employeeView struct {
	workforcedomain.Employee
	Compensation workforcedomain.Compensation `json:"compensation"`
}

func (s *Server) ListContractEmployees(c *gin.Context) {
	id, err := parseSnowflakeID(c.Param("id"))
	if err != nil {
		AbortWithError(c, contractdomain.ErrNotFound)
		return
	}
	if _, err := s.contractSvc.Lookup(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	employees, err := s.workforceSvc.List(c.Request.Context(), workforcedomain.ListFilter{
		ContractID: filter.Some(id),
		ActiveOnly: c.Query("active") == "true",
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]employeeView, 0, len(employees))
	for _, e := range employees {
		views = append(views, employeeView{Employee: e, Compensation: s.workforceSvc.Compensation(e)})
	}
	c.JSON(http.StatusOK, gin.H{"data": views})
}
