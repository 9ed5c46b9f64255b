package httpserver

import (
	"log"
	"net/http"

	customersvc "aguas-del-valle/internal/service/customer"
	"github.com/gin-gonic/gin"
)

type customerRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Address string `json:"address" binding:"required"`
	Email   string `json:"email" binding:"required,max=254"`
	Phone   string `json:"phone" binding:"max=20"`
}

func (r customerRequest) input() customersvc.Input {
	return customersvc.Input{Name: r.Name, Address: r.Address, Email: r.Email, Phone: r.Phone}
}

func listCustomersHandler(logger *log.Logger, svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, ok := queryBool(c, "active")
		if !ok {
			badQuery(c, "active", "must be true or false")
			return
		}
		customers, err := svc.List(c.Request.Context(), active)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, newList(customers))
	}
}

func createCustomerHandler(logger *log.Logger, svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req customerRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		customer, err := svc.Create(c.Request.Context(), req.input())
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func customerDetailHandler(logger *log.Logger, svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		detail, err := svc.Detail(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func updateCustomerHandler(logger *log.Logger, svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req customerRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		customer, err := svc.Update(c.Request.Context(), id, req.input())
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func toggleCustomerHandler(logger *log.Logger, svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		customer, err := svc.ToggleActive(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func deleteCustomerHandler(logger *log.Logger, svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			writeError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
