package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/booklib/internal/customer/domain"
	"github.com/smallbiznis/booklib/pkg/db/pagination"
)

// maxCustomerBody bounds registration payloads. Six short fields fit with room to spare.
const maxCustomerBody = 16 << 10

func (s *Server) CreateCustomer(c *gin.Context) {
	attrs, err := decodeAttributes(c)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req, err := customerdomain.FromAttributes(attrs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name string `form:"name"`
		City string `form:"city"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if _, ok := c.GetQuery("name"); ok {
		customer, err := s.customerSvc.GetByName(c.Request.Context(), customerdomain.GetCustomerRequest{
			Name: query.Name,
		})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": customerdomain.ListCustomerResponse{
			Total:     1,
			Customers: []customerdomain.Customer{customer},
		}})
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		PageToken: query.PageToken,
		PageSize:  int32(min(max(query.PageSize, 0), pagination.MaxPageSize)),
		City:      strings.TrimSpace(query.City),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByName(c *gin.Context) {
	resp, err := s.customerSvc.GetByName(c.Request.Context(), customerdomain.GetCustomerRequest{
		Name: c.Param("name"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// decodeAttributes reads a single JSON object. Numbers stay json.Number so that
// fractional or quoted ages are rejected instead of silently converted.
func decodeAttributes(c *gin.Context) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxCustomerBody))
	dec.UseNumber()

	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return nil, err
	}
	if attrs == nil {
		return nil, errors.New("body must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}
	return attrs, nil
}
