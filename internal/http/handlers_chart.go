package http

import (
	"context"
	"net/http"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"finboard/internal/core"
	logger "finboard/internal/log"
)

var (
	incomeFill  = drawing.Color{R: 46, G: 160, B: 67, A: 255}
	expenseFill = drawing.Color{R: 218, G: 54, B: 51, A: 255}
)

// handleMonthlyChart renders the monthly income/expense series as a PNG
// bar chart, one income and one expense bar per month.
func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	txs, err := s.store.ListAllTransactions(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to list transactions", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to build chart")
		return
	}

	series := core.MonthlySeries(core.FilterByDateRange(txs, parseDateRange(r)))
	if len(series) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	bars := make([]chart.Value, 0, len(series)*2)
	for _, b := range series {
		bars = append(bars,
			chart.Value{
				Label: b.Month + " in",
				Value: b.Income.InexactFloat64(),
				Style: chart.Style{FillColor: incomeFill},
			},
			chart.Value{
				Label: b.Month + " out",
				Value: b.Expense.InexactFloat64(),
				Style: chart.Style{FillColor: expenseFill},
			},
		)
	}

	barChart := chart.BarChart{
		Title: "Income vs Expenses by Month",
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:  900,
		Height: 450,
		Bars:   bars,
	}

	w.Header().Set("Content-Type", "image/png")
	if err := barChart.Render(chart.PNG, w); err != nil {
		s.log.ErrorContext(ctx, "failed to render monthly chart", logger.FieldError, err)
	}
}

// handleCategoryChart renders the expense-by-category breakdown as a
// PNG pie chart.
func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	txs, err := s.store.ListAllTransactions(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to list transactions", logger.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to build chart")
		return
	}

	breakdown := core.CategoryBreakdown(core.FilterByDateRange(txs, parseDateRange(r)))

	values := make([]chart.Value, 0, len(breakdown))
	for _, c := range breakdown {
		if c.Value.IsPositive() {
			values = append(values, chart.Value{
				Label: c.Category,
				Value: c.Value.InexactFloat64(),
			})
		}
	}
	if len(values) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	pieChart := chart.PieChart{
		Title:  "Expenses by Category",
		Width:  600,
		Height: 600,
		Values: values,
	}

	w.Header().Set("Content-Type", "image/png")
	if err := pieChart.Render(chart.PNG, w); err != nil {
		s.log.ErrorContext(ctx, "failed to render category chart", logger.FieldError, err)
	}
}
