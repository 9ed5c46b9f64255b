package httpserver

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aguas-del-valle/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type messageResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Errors domain.ValidationErrors `json:"errors"`
}

type listResponse[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Count: len(items), Results: items}
}

// writeError maps service errors to HTTP responses.
func writeError(c *gin.Context, logger *log.Logger, err error) {
	if fields, ok := domain.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, validationResponse{Errors: fields})
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, validationResponse{Errors: bindingErrors(verrs)})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, messageResponse{Message: "not found"})
	case errors.Is(err, domain.ErrReadingMismatch):
		c.JSON(http.StatusUnprocessableEntity, validationResponse{Errors: domain.ValidationErrors{
			{Field: "readingId", Message: "reading does not belong to the customer"},
		}})
	case errors.Is(err, domain.ErrConsumptionUnknown):
		c.JSON(http.StatusUnprocessableEntity, validationResponse{Errors: domain.ValidationErrors{
			{Field: "readingId", Message: "reading has no consumption to bill"},
		}})
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStateConflict),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrSequenceExhausted):
		c.JSON(http.StatusConflict, messageResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrDelivery):
		logger.Printf("delivery failed: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusBadGateway, messageResponse{Message: "the document could not be delivered, please try again later"})
	default:
		logger.Printf("internal error: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, messageResponse{Message: "internal error"})
	}
}

func bindingErrors(verrs validator.ValidationErrors) domain.ValidationErrors {
	out := make(domain.ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.ValidationError{Field: fe.Field(), Message: bindingMessage(fe)})
	}
	return out
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "uuid":
		return "must be a valid identifier"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

// bindJSON decodes the body; it writes the error response and returns false
// on failure.
func bindJSON(c *gin.Context, logger *log.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeError(c, logger, err)
			return false
		}
		c.JSON(http.StatusBadRequest, messageResponse{Message: "invalid request body"})
		return false
	}
	return true
}

// pathID returns the :id parameter. Anything that is not a UUID cannot
// match a stored row, so it is answered with 404.
func pathID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, messageResponse{Message: "not found"})
		return "", false
	}
	return id.String(), true
}

func parseDate(field, value string, errs *domain.ValidationErrors) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC()
	}
	errs.Add(field, "must be a date in YYYY-MM-DD format")
	return time.Time{}
}

func queryBool(c *gin.Context, key string) (*bool, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func badQuery(c *gin.Context, field, message string) {
	c.JSON(http.StatusUnprocessableEntity, validationResponse{Errors: domain.ValidationErrors{{Field: field, Message: message}}})
}
