package httpserver

import (
	"log"
	"net/http"
	"strings"

	"aguas-del-valle/internal/domain"
	noticesvc "aguas-del-valle/internal/service/notice"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type noticeRequest struct {
	CustomerID string `json:"customerId" binding:"required,uuid"`
	Date       string `json:"date"`
	Type       string `json:"type" binding:"required,oneof=corte_programado mantenimiento cambio_tarifa informacion_general recordatorio_pago"`
	Title      string `json:"title" binding:"required,max=200"`
	Message    string `json:"message" binding:"required"`
}

func (r noticeRequest) input() (noticesvc.Input, error) {
	var errs domain.ValidationErrors
	date := parseDate("date", r.Date, &errs)
	if err := errs.Err(); err != nil {
		return noticesvc.Input{}, err
	}
	return noticesvc.Input{
		CustomerID: r.CustomerID,
		Date:       date,
		Type:       r.Type,
		Title:      r.Title,
		Message:    r.Message,
	}, nil
}

func listNoticesHandler(logger *log.Logger, svc NoticeService) gin.HandlerFunc {
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
			notices, err := svc.ListByCustomer(c.Request.Context(), customerID, limit)
			if err != nil {
				writeError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, newList(notices))
			return
		}
		sent, ok := queryBool(c, "sent")
		if !ok {
			badQuery(c, "sent", "must be true or false")
			return
		}
		notices, err := svc.List(c.Request.Context(), sent, limit)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, newList(notices))
	}
}

func createNoticeHandler(logger *log.Logger, svc NoticeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req noticeRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		in, err := req.input()
		if err != nil {
			writeError(c, logger, err)
			return
		}
		n, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, n)
	}
}

func getNoticeHandler(logger *log.Logger, svc NoticeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		n, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, n)
	}
}

func updateNoticeHandler(logger *log.Logger, svc NoticeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req noticeRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		in, err := req.input()
		if err != nil {
			writeError(c, logger, err)
			return
		}
		n, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, n)
	}
}

func deleteNoticeHandler(logger *log.Logger, svc NoticeService) gin.HandlerFunc {
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

func sendNoticeHandler(logger *log.Logger, svc NoticeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		n, err := svc.Send(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, n)
	}
}

func markNoticeSentHandler(logger *log.Logger, svc NoticeService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		n, err := svc.MarkSent(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, n)
	}
}
