package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/provisora/internal/export"
)

func (s *Server) GetAggregates(c *gin.Context) {
	f, err := bindProvisionFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.aggregationSvc.Aggregates(c.Request.Context(), f)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetContractVariance(c *gin.Context) {
	f, err := bindProvisionFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.aggregationSvc.ContractVariance(c.Request.Context(), f)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMonthlySeries(c *gin.Context) {
	f, err := bindProvisionFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.aggregationSvc.Monthly(c.Request.Context(), f)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDeductions(c *gin.Context) {
	f, err := bindProvisionFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.aggregationSvc.Deductions(c.Request.Context(), f)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCostBreakdown(c *gin.Context) {
	f, err := bindCostEntryFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.aggregationSvc.CostBreakdown(c.Request.Context(), f)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExportProvisions(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	f, err := bindProvisionFilter(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	file, err := s.exportSvc.Export(c.Request.Context(), f, format)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Body)
}
