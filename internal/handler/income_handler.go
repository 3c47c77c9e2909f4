package handler

import (
	"net/http"
	"strconv"

	"github.com/Baaaki/buy-sell-store/internal/service"
	"github.com/gin-gonic/gin"
)

type IncomeHandler struct {
	incomeService *service.IncomeService
}

func NewIncomeHandler(incomeService *service.IncomeService) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService}
}

// Report returns the caller's income for an optional category and period.
// GET /api/income?category=&from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *IncomeHandler) Report(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var q service.IncomeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	report, err := h.incomeService.Report(c.Request.Context(), p, q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your income is " + strconv.FormatInt(report.Income, 10),
		"report":  report,
	})
}
