package httpserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func dashboardHandler(logger *log.Logger, svc ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svc.Dashboard(c.Request.Context())
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

func statsHandler(logger *log.Logger, svc ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svc.Stats(c.Request.Context())
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}

func searchHandler(logger *log.Logger, svc ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Search(c.Request.Context(), c.Query("q"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
