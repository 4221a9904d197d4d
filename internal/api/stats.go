package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/dataset"
	"github.com/AriSilva94/mvabrigosbrasil-sub002/internal/stats"
)

// Monthly series names accepted by GET /stats/monthly/:series.
const (
	SeriesFlow      = "flow"
	SeriesSpecies   = "species"
	SeriesExits     = "exits"
	SeriesOutcomes  = "outcomes"
	SeriesAdoptions = "adoptions"
)

// OverviewResponse is the body of GET /stats/overview.
type OverviewResponse struct {
	Filter   stats.Filter   `json:"filter"`
	HasData  bool           `json:"has_data"`
	Overview stats.Overview `json:"overview"`
}

// MonthlyResponse is the body of GET /stats/monthly/:series. Months holds
// twelve buckets, January first.
type MonthlyResponse struct {
	Filter  stats.Filter `json:"filter"`
	HasData bool         `json:"has_data"`
	Series  string       `json:"series"`
	Months  any          `json:"months"`
}

// FiltersResponse lists the values a dashboard can offer as filters.
type FiltersResponse struct {
	Years  []int    `json:"years"`
	States []string `json:"states"`
}

// request parses the year and state query parameters and loads the dataset.
// On failure the error response has already been written and handled is true.
func (s *Server) request(c echo.Context) (f stats.Filter, ds *dataset.Dataset, handled bool, err error) {
	f, err = stats.ParseFilter(c.QueryParam("year"), c.QueryParam("state"))
	if err != nil {
		return f, nil, true, s.HandleError(c, err, "Invalid filter", http.StatusBadRequest)
	}

	ds, err = s.deps.Datasets.Load(c.Request().Context())
	if err != nil {
		return f, nil, true, s.HandleError(c, err, "Dataset unavailable", http.StatusServiceUnavailable)
	}
	return f, ds, false, nil
}

// GetSummary handles GET /api/v1/stats/summary
func (s *Server) GetSummary(c echo.Context) error {
	f, ds, handled, err := s.request(c)
	if handled {
		return err
	}
	return c.JSON(http.StatusOK, stats.ComputeSummary(ds, f))
}

// GetOverview handles GET /api/v1/stats/overview
func (s *Server) GetOverview(c echo.Context) error {
	f, ds, handled, err := s.request(c)
	if handled {
		return err
	}
	return c.JSON(http.StatusOK, OverviewResponse{
		Filter:   f,
		HasData:  stats.HasData(ds, f),
		Overview: stats.ComputeOverview(ds, f),
	})
}

// GetMonthly handles GET /api/v1/stats/monthly/:series
func (s *Server) GetMonthly(c echo.Context) error {
	series := c.Param("series")
	compute, ok := monthlySeries[series]
	if !ok {
		return s.HandleError(c, fmt.Errorf("unknown series %q", series), "Unknown series", http.StatusNotFound)
	}

	f, ds, handled, err := s.request(c)
	if handled {
		return err
	}
	return c.JSON(http.StatusOK, MonthlyResponse{
		Filter:  f,
		HasData: stats.HasData(ds, f),
		Series:  series,
		Months:  compute(ds, f),
	})
}

var monthlySeries = map[string]func(*dataset.Dataset, stats.Filter) any{
	SeriesFlow:      func(ds *dataset.Dataset, f stats.Filter) any { return stats.ComputeMonthlyAnimalFlow(ds, f) },
	SeriesSpecies:   func(ds *dataset.Dataset, f stats.Filter) any { return stats.ComputeMonthlySpeciesEntries(ds, f) },
	SeriesExits:     func(ds *dataset.Dataset, f stats.Filter) any { return stats.ComputeMonthlyAnimalExits(ds, f) },
	SeriesOutcomes:  func(ds *dataset.Dataset, f stats.Filter) any { return stats.ComputeMonthlyOutcomes(ds, f) },
	SeriesAdoptions: func(ds *dataset.Dataset, f stats.Filter) any { return stats.ComputeMonthlyAdoptionsByType(ds, f) },
}

// GetFilters handles GET /api/v1/stats/filters
func (s *Server) GetFilters(c echo.Context) error {
	ds, err := s.deps.Datasets.Load(c.Request().Context())
	if err != nil {
		return s.HandleError(c, err, "Dataset unavailable", http.StatusServiceUnavailable)
	}

	resp := FiltersResponse{Years: ds.Years, States: ds.States}
	if resp.Years == nil {
		resp.Years = []int{}
	}
	if resp.States == nil {
		resp.States = []string{}
	}
	return c.JSON(http.StatusOK, resp)
}
