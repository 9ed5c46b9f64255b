package httpserver

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"aguas-del-valle/internal/domain"
	invoicesvc "aguas-del-valle/internal/service/invoice"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type generateInvoiceRequest struct {
	CustomerID string `json:"customerId" binding:"required,uuid"`
	ReadingID  string `json:"readingId" binding:"required,uuid"`
	IssuedOn   string `json:"issuedOn"`
	DueOn      string `json:"dueOn"`
	Number     string `json:"number" binding:"max=20"`
}

type stateRequest struct {
	State string `json:"state" binding:"required"`
}

type stateResponse struct {
	Invoice *domain.Invoice `json:"invoice"`
	Changed bool            `json:"changed"`
}

type sendInvoiceResponse struct {
	Number string `json:"number"`
	SentTo string `json:"sentTo"`
}

func listInvoicesHandler(logger *log.Logger, svc InvoiceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryLimit(c)
		if !ok {
			badQuery(c, "limit", "must be a non-negative integer")
			return
		}
		if customerID := strings.TrimSpace(c.Query("customerId")); customerID != "" {
			if _, err := uuid.Parse(customerID); err != nil {
				writeError(c, logger, domain.ErrNotFound)
				return
			}
			invoices, err := svc.ListByCustomer(c.Request.Context(), customerID, limit)
			if err != nil {
				writeError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, newList(invoices))
			return
		}

		var state *domain.InvoiceState
		if raw := strings.TrimSpace(c.Query("state")); raw != "" {
			st, ok := domain.ParseInvoiceState(raw)
			if !ok {
				badQuery(c, "state", "must be one of: pending, paid, overdue, cancelled")
				return
			}
			state = &st
		}
		invoices, err := svc.List(c.Request.Context(), state, limit)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, newList(invoices))
	}
}

func generateInvoiceHandler(logger *log.Logger, svc InvoiceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req generateInvoiceRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		var errs domain.ValidationErrors
		in := invoicesvc.GenerateInput{
			CustomerID: req.CustomerID,
			ReadingID:  req.ReadingID,
			IssuedOn:   parseDate("issuedOn", req.IssuedOn, &errs),
			DueOn:      parseDate("dueOn", req.DueOn, &errs),
			Number:     req.Number,
		}
		if err := errs.Err(); err != nil {
			writeError(c, logger, err)
			return
		}
		inv, err := svc.Generate(c.Request.Context(), in)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, inv)
	}
}

func getInvoiceHandler(logger *log.Logger, svc InvoiceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		inv, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

func deleteInvoiceHandler(logger *log.Logger, svc InvoiceService) gin.HandlerFunc {
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

func changeInvoiceStateHandler(logger *log.Logger, svc InvoiceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req stateRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		inv, changed, err := svc.ChangeState(c.Request.Context(), id, req.State)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, stateResponse{Invoice: inv, Changed: changed})
	}
}

func invoicePDFHandler(logger *log.Logger, svc InvoiceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		data, name, err := svc.RenderPDF(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, "application/pdf", data)
	}
}

func sendInvoiceHandler(logger *log.Logger, svc InvoiceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		doc, err := svc.Send(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, sendInvoiceResponse{Number: doc.Invoice.Number, SentTo: doc.Customer.Email})
	}
}
