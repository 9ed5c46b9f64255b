package httpserver

import (
	"log"
	"net/http"
	"strings"

	"aguas-del-valle/internal/domain"
	readingsvc "aguas-del-valle/internal/service/reading"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type readingRequest struct {
	CustomerID      string              `json:"customerId" binding:"required,uuid"`
	Date            string              `json:"date" binding:"required"`
	ConsumptionM3   decimal.NullDecimal `json:"consumptionM3"`
	PreviousReading decimal.NullDecimal `json:"previousReading"`
	CurrentReading  decimal.NullDecimal `json:"currentReading"`
	Notes           string              `json:"notes" binding:"max=2000"`
}

func (r readingRequest) input() (readingsvc.Input, error) {
	var errs domain.ValidationErrors
	date := parseDate("date", r.Date, &errs)
	if err := errs.Err(); err != nil {
		return readingsvc.Input{}, err
	}
	return readingsvc.Input{
		CustomerID:      r.CustomerID,
		Date:            date,
		ConsumptionM3:   r.ConsumptionM3,
		PreviousReading: r.PreviousReading,
		CurrentReading:  r.CurrentReading,
		Notes:           r.Notes,
	}, nil
}

func listReadingsHandler(logger *log.Logger, svc ReadingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryLimit(c)
		if !ok {
			badQuery(c, "limit", "must be a non-negative integer")
			return
		}
		var (
			readings []domain.Reading
			err      error
		)
		if customerID := strings.TrimSpace(c.Query("customerId")); customerID != "" {
			if _, perr := uuid.Parse(customerID); perr != nil {
				writeError(c, logger, domain.ErrNotFound)
				return
			}
			readings, err = svc.ListByCustomer(c.Request.Context(), customerID, limit)
		} else {
			readings, err = svc.List(c.Request.Context(), limit)
		}
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, newList(readings))
	}
}

func createReadingHandler(logger *log.Logger, svc ReadingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req readingRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		in, err := req.input()
		if err != nil {
			writeError(c, logger, err)
			return
		}
		reading, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, reading)
	}
}

func getReadingHandler(logger *log.Logger, svc ReadingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		reading, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, reading)
	}
}

func updateReadingHandler(logger *log.Logger, svc ReadingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req readingRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		in, err := req.input()
		if err != nil {
			writeError(c, logger, err)
			return
		}
		reading, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, reading)
	}
}

func deleteReadingHandler(logger *log.Logger, svc ReadingService) gin.HandlerFunc {
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
