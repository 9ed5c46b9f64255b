package httpserver

import (
	"context"
	"errors"
	"log"
	"reflect"
	"strings"
	"time"

	"aguas-del-valle/internal/domain"
	customersvc "aguas-del-valle/internal/service/customer"
	invoicesvc "aguas-del-valle/internal/service/invoice"
	noticesvc "aguas-del-valle/internal/service/notice"
	readingsvc "aguas-del-valle/internal/service/reading"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CustomerService is the customer directory used by the handlers.
type CustomerService interface {
	Create(ctx context.Context, in customersvc.Input) (*domain.Customer, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
	List(ctx context.Context, active *bool) ([]domain.Customer, error)
	Update(ctx context.Context, id string, in customersvc.Input) (*domain.Customer, error)
	ToggleActive(ctx context.Context, id string) (*domain.Customer, error)
	Delete(ctx context.Context, id string) error
	Detail(ctx context.Context, id string) (*domain.CustomerDetail, error)
}

// ReadingService is the reading ledger used by the handlers.
type ReadingService interface {
	Create(ctx context.Context, in readingsvc.Input) (*domain.Reading, error)
	Get(ctx context.Context, id string) (*domain.Reading, error)
	Update(ctx context.Context, id string, in readingsvc.Input) (*domain.Reading, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit int) ([]domain.Reading, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Reading, error)
}

// InvoiceService issues invoices and drives their lifecycle.
type InvoiceService interface {
	Generate(ctx context.Context, in invoicesvc.GenerateInput) (*domain.Invoice, error)
	Get(ctx context.Context, id string) (*domain.Invoice, error)
	List(ctx context.Context, state *domain.InvoiceState, limit int) ([]domain.Invoice, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Invoice, error)
	Delete(ctx context.Context, id string) error
	ChangeState(ctx context.Context, id, target string) (*domain.Invoice, bool, error)
	RenderPDF(ctx context.Context, id string) ([]byte, string, error)
	Send(ctx context.Context, id string) (*domain.InvoiceDocument, error)
}

// NoticeService creates and dispatches notices.
type NoticeService interface {
	Create(ctx context.Context, in noticesvc.Input) (*domain.Notice, error)
	Get(ctx context.Context, id string) (*domain.Notice, error)
	Update(ctx context.Context, id string, in noticesvc.Input) (*domain.Notice, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, sent *bool, limit int) ([]domain.Notice, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Notice, error)
	MarkSent(ctx context.Context, id string) (*domain.Notice, error)
	Send(ctx context.Context, id string) (*domain.Notice, error)
}

// ReportService builds the dashboard, reports and search results.
type ReportService interface {
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
	Stats(ctx context.Context) (*domain.Stats, error)
	Search(ctx context.Context, q string) (*domain.SearchResults, error)
}

// Deps bundles the services behind the API.
type Deps struct {
	CustomerSvc CustomerService
	ReadingSvc  ReadingService
	InvoiceSvc  InvoiceService
	NoticeSvc   NoticeService
	ReportSvc   ReportService
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.CustomerSvc == nil:
		return errors.New("customer service is required")
	case d.ReadingSvc == nil:
		return errors.New("reading service is required")
	case d.InvoiceSvc == nil:
		return errors.New("invoice service is required")
	case d.NoticeSvc == nil:
		return errors.New("notice service is required")
	case d.ReportSvc == nil:
		return errors.New("report service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	useJSONFieldNames()

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")
	api.GET("/dashboard", dashboardHandler(logger, deps.ReportSvc))
	api.GET("/reports", statsHandler(logger, deps.ReportSvc))
	api.GET("/search", searchHandler(logger, deps.ReportSvc))

	customers := api.Group("/customers")
	customers.GET("", listCustomersHandler(logger, deps.CustomerSvc))
	customers.POST("", createCustomerHandler(logger, deps.CustomerSvc))
	customers.GET("/:id", customerDetailHandler(logger, deps.CustomerSvc))
	customers.PUT("/:id", updateCustomerHandler(logger, deps.CustomerSvc))
	customers.DELETE("/:id", deleteCustomerHandler(logger, deps.CustomerSvc))
	customers.POST("/:id/toggle-active", toggleCustomerHandler(logger, deps.CustomerSvc))

	readings := api.Group("/readings")
	readings.GET("", listReadingsHandler(logger, deps.ReadingSvc))
	readings.POST("", createReadingHandler(logger, deps.ReadingSvc))
	readings.GET("/:id", getReadingHandler(logger, deps.ReadingSvc))
	readings.PUT("/:id", updateReadingHandler(logger, deps.ReadingSvc))
	readings.DELETE("/:id", deleteReadingHandler(logger, deps.ReadingSvc))

	invoices := api.Group("/invoices")
	invoices.GET("", listInvoicesHandler(logger, deps.InvoiceSvc))
	invoices.POST("", generateInvoiceHandler(logger, deps.InvoiceSvc))
	invoices.GET("/:id", getInvoiceHandler(logger, deps.InvoiceSvc))
	invoices.DELETE("/:id", deleteInvoiceHandler(logger, deps.InvoiceSvc))
	invoices.POST("/:id/state", changeInvoiceStateHandler(logger, deps.InvoiceSvc))
	invoices.GET("/:id/pdf", invoicePDFHandler(logger, deps.InvoiceSvc))
	invoices.POST("/:id/send", sendInvoiceHandler(logger, deps.InvoiceSvc))

	notices := api.Group("/notices")
	notices.GET("", listNoticesHandler(logger, deps.NoticeSvc))
	notices.POST("", createNoticeHandler(logger, deps.NoticeSvc))
	notices.GET("/:id", getNoticeHandler(logger, deps.NoticeSvc))
	notices.PUT("/:id", updateNoticeHandler(logger, deps.NoticeSvc))
	notices.DELETE("/:id", deleteNoticeHandler(logger, deps.NoticeSvc))
	notices.POST("/:id/send", sendNoticeHandler(logger, deps.NoticeSvc))
	notices.POST("/:id/mark-sent", markNoticeSentHandler(logger, deps.NoticeSvc))

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// useJSONFieldNames makes binding errors report the json name of a field.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}
