package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/iwvelando/finance-projection/internal/config"
	"github.com/iwvelando/finance-projection/internal/forecast"
	"github.com/iwvelando/finance-projection/internal/insight"
	"github.com/iwvelando/finance-projection/internal/projection"
	"github.com/iwvelando/finance-projection/internal/summary"
	"github.com/iwvelando/finance-projection/pkg/adapters"
	"github.com/iwvelando/finance-projection/pkg/datetime"
	"github.com/iwvelando/finance-projection/pkg/output"
	"github.com/shopspring/decimal"
)

// scenarioRequest is the JSON form of a configured scenario. Either Series
// lists the periods, or BaseRevenue, BaseCost and Years generate them.
type scenarioRequest struct {
	Name              string              `json:"name"`
	Type              string              `json:"type"`
	DiscountRate      decimal.Decimal     `json:"discount_rate"`
	GrowthRate        decimal.Decimal     `json:"growth_rate"`
	BaselineCapital   decimal.NullDecimal `json:"baseline_capital"`
	InitialInvestment decimal.NullDecimal `json:"initial_investment"`
	BaseRevenue       decimal.NullDecimal `json:"base_revenue"`
	BaseCost          decimal.NullDecimal `json:"base_cost"`
	Years             int                 `json:"years"`
	Series            []cashFlowRequest   `json:"series"`
}

type cashFlowRequest struct {
	Period    int                 `json:"period_index"`
	Revenue   decimal.Decimal     `json:"revenue"`
	Cost      decimal.Decimal     `json:"cost"`
	NetProfit decimal.NullDecimal `json:"net_profit"`
}

func (s scenarioRequest) toConfig() config.Scenario {
	c := config.Scenario{
		Name:              s.Name,
		Active:            true,
		Type:              s.Type,
		DiscountRate:      s.DiscountRate,
		GrowthRate:        s.GrowthRate,
		BaselineCapital:   s.BaselineCapital,
		InitialInvestment: s.InitialInvestment,
		BaseRevenue:       s.BaseRevenue,
		BaseCost:          s.BaseCost,
		Years:             s.Years,
	}
	for _, f := range s.Series {
		c.CashFlows = append(c.CashFlows, config.CashFlow{
			Period:    f.Period,
			Revenue:   f.Revenue,
			Cost:      f.Cost,
			NetProfit: f.NetProfit,
		})
	}
	return c
}

type totalsView struct {
	Revenue   decimal.Decimal `json:"revenue"`
	Cost      decimal.Decimal `json:"cost"`
	NetProfit decimal.Decimal `json:"net_profit"`
}

type scenarioView struct {
	Name    string             `json:"name"`
	Type    projection.Type    `json:"type"`
	Metrics projection.Metrics `json:"metrics"`
	Totals  totalsView         `json:"totals"`
	Warning string             `json:"warning,omitempty"`
}

func newScenarioView(s output.ScenarioReport) scenarioView {
	v := scenarioView{
		Name:    s.Name,
		Type:    s.Type,
		Metrics: s.Metrics,
		Totals:  totalsView{Revenue: s.TotalRevenue, Cost: s.TotalCost, NetProfit: s.TotalNetProfit},
	}
	if warn := s.Metrics.IRRWarning(); warn != nil {
		v.Warning = warn.Error()
	}
	return v
}

func (h *handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMetrics"

	var req scenarioRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	report, err := h.engine.Scenario(req.toConfig())
	if err != nil {
		// Every failure here stems from the submitted scenario.
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}
	h.writeJSON(w, http.StatusOK, newScenarioView(report))
}

type forecastRequest struct {
	Source     string                     `json:"source"`
	Method     string                     `json:"method"`
	Horizon    int                        `json:"horizon"`
	Historical *forecast.HistoricalPeriod `json:"historical"`
}

type yearView struct {
	Year int `json:"year"`
	summary.Summary
}

type forecastView struct {
	Run      forecast.Run      `json:"run"`
	Insights []insight.Insight `json:"insights"`
	Annual   summary.Summary   `json:"annual"`
	Yearly   []yearView        `json:"yearly"`
}

func newForecastView(f output.ForecastReport) forecastView {
	v := forecastView{
		Run:      f.Run,
		Insights: f.Insights,
		Annual:   f.Annual,
		Yearly:   make([]yearView, 0, len(f.Yearly)),
	}
	if v.Insights == nil {
		v.Insights = []insight.Insight{}
	}
	for _, year := range summary.Years(f.Yearly) {
		v.Yearly = append(v.Yearly, yearView{Year: year, Summary: f.Yearly[year]})
	}
	return v
}

func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecast"

	var req forecastRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	source := strings.TrimSpace(req.Source)
	if source == "" {
		h.respondErrorWithOp(w, http.StatusBadRequest, "source is required", op)
		return
	}
	method, err := forecast.ParseMethod(req.Method)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	report, err := h.engine.Forecast(adapters.ForecastRequest{
		Name:       source,
		Method:     method,
		Horizon:    req.Horizon,
		Historical: req.Historical,
	})
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, newForecastView(report))
}

func (h *handler) handleForecastSources(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string][]string{
		"sources": h.engine.Runs().Sources(),
	})
}

func (h *handler) handleLatestForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleLatestForecast"

	source := r.PathValue("source")
	run, ok := h.engine.Runs().Get(source)
	if !ok {
		h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("no forecast for source %q", source), op)
		return
	}
	report, err := h.engine.Describe(run)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, newForecastView(report))
}

type insightsRequest struct {
	Results                []forecast.Result          `json:"results"`
	Historical             *forecast.HistoricalPeriod `json:"historical"`
	LowMarginThreshold     decimal.NullDecimal        `json:"low_margin_threshold"`
	HealthyMarginThreshold decimal.NullDecimal        `json:"healthy_margin_threshold"`
}

func (h *handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleInsights"

	var req insightsRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	opts := h.engine.InsightOptions()
	if req.LowMarginThreshold.Valid {
		opts.LowMarginThreshold = req.LowMarginThreshold.Decimal
	}
	if req.HealthyMarginThreshold.Valid {
		opts.HealthyMarginThreshold = req.HealthyMarginThreshold.Decimal
	}

	insights := insight.DeriveWithOptions(req.Results, req.Historical, opts)
	if insights == nil {
		insights = []insight.Insight{}
	}
	h.writeJSON(w, http.StatusOK, map[string][]insight.Insight{"insights": insights})
}

type resultsRequest struct {
	Results []forecast.Result `json:"results"`
}

func (h *handler) handleAnnualSummary(w http.ResponseWriter, r *http.Request) {
	var req resultsRequest
	if !h.decodeJSON(w, r, &req, "server.handleAnnualSummary") {
		return
	}
	h.writeJSON(w, http.StatusOK, summary.Annual(req.Results))
}

type yearlyRequest struct {
	Results    []forecast.Result `json:"results"`
	Start      string            `json:"start,omitempty"`
	StartYear  int               `json:"start_year"`
	StartMonth int               `json:"start_month"`
}

func (h *handler) handleYearlySummary(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleYearlySummary"

	var req yearlyRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	if req.Start != "" {
		y, m, err := datetime.ParseMonth(req.Start)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		req.StartYear, req.StartMonth = y, m
	}
	// Without an explicit start the first row anchors the calendar.
	if req.StartYear == 0 && len(req.Results) > 0 {
		req.StartYear, req.StartMonth = req.Results[0].Year, req.Results[0].Month
	}

	yearly, err := summary.Yearly(req.Results, req.StartYear, req.StartMonth)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	years := make([]yearView, 0, len(yearly))
	for _, year := range summary.Years(yearly) {
		years = append(years, yearView{Year: year, Summary: yearly[year]})
	}
	h.writeJSON(w, http.StatusOK, map[string][]yearView{"years": years})
}

type compareRequest struct {
	Series []summary.Series `json:"series"`
}

func (h *handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompare"

	var req compareRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	comparisons, err := summary.Compare(req.Series)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]summary.Comparison{"comparisons": comparisons})
}
