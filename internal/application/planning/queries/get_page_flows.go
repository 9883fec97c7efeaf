package queries

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/factorlab/beltplan-go/internal/application/common"
	"github.com/factorlab/beltplan-go/internal/application/session"
	"github.com/factorlab/beltplan-go/internal/domain/production"
)

// GetPageFlowsQuery represents a query for a page's solved state: the net
// flow summary plus every row's rate, building count and warnings.
type GetPageFlowsQuery struct {
	Page string
}

// GetPageFlowsResponse represents a page's solved state.
type GetPageFlowsResponse struct {
	Page       string
	SolveError string
	Flows      []*FlowEntry
	Rows       []*RowSummary
	Links      []*LinkSummary
}

// FlowEntry is one good's net flow at the page's top level.
type FlowEntry struct {
	Good      string
	Quality   string
	PerSecond float64
	Linked    bool
}

// RowSummary is one row's solved state. Path addresses the row, nested rows
// use dotted indices.
type RowSummary struct {
	Path      string
	Recipe    string
	Entity    string
	Research  bool
	Enabled   bool
	Rate      float64
	Buildings float64
	Built     float64
	Warnings  []string
}

// LinkSummary is one link's solved state, including links of nested tables.
type LinkSummary struct {
	TablePath  string
	Good       string
	Quality    string
	Amount     float64
	Algorithm  string
	Flow       float64
	NotMatched float64
	Matched    bool
}

// GetPageFlowsHandler handles the GetPageFlows query
type GetPageFlowsHandler struct {
	session *session.Session
}

// NewGetPageFlowsHandler creates a new GetPageFlowsHandler
func NewGetPageFlowsHandler(s *session.Session) *GetPageFlowsHandler {
	return &GetPageFlowsHandler{session: s}
}

// Handle executes the GetPageFlows query
func (h *GetPageFlowsHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	query, ok := request.(*GetPageFlowsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetPageFlowsQuery")
	}

	page, err := h.session.FindPage(query.Page)
	if err != nil {
		return nil, err
	}

	resp := &GetPageFlowsResponse{
		Page:       page.Name,
		SolveError: page.LastSolveError,
	}
	for i := range page.Table.Flow {
		f := &page.Table.Flow[i]
		resp.Flows = append(resp.Flows, &FlowEntry{
			Good:      f.Good.Name,
			Quality:   f.Quality.Name,
			PerSecond: f.Amount,
			Linked:    f.Link != nil,
		})
	}
	collectRows(resp, page.Table, nil)
	collectLinks(resp, page.Table, nil)
	return resp, nil
}

func collectRows(resp *GetPageFlowsResponse, table *production.ProductionTable, prefix []int) {
	for i, row := range table.Rows {
		path := childPath(prefix, i)
		entity := ""
		if row.Entity != nil {
			entity = row.Entity.Name
		}
		resp.Rows = append(resp.Rows, &RowSummary{
			Path:      pathString(path),
			Recipe:    row.Recipe.Name,
			Entity:    entity,
			Research:  row.IsResearch(),
			Enabled:   row.Enabled,
			Rate:      row.RecipesPerSecond,
			Buildings: row.BuildingCount(),
			Built:     row.BuiltBuildings,
			Warnings:  row.Warnings.Describe(),
		})
		if row.SubTable != nil {
			collectRows(resp, row.SubTable, path)
		}
	}
}

func collectLinks(resp *GetPageFlowsResponse, table *production.ProductionTable, prefix []int) {
	for _, link := range table.Links {
		resp.Links = append(resp.Links, &LinkSummary{
			TablePath:  pathString(prefix),
			Good:       link.Good.Name,
			Quality:    link.Quality.Name,
			Amount:     link.Amount,
			Algorithm:  link.Algorithm.String(),
			Flow:       link.LinkFlow,
			NotMatched: link.NotMatchedFlow,
			Matched:    !link.Flags.Has(production.LinkNotMatched),
		})
	}
	for i, row := range table.Rows {
		if row.SubTable != nil {
			collectLinks(resp, row.SubTable, childPath(prefix, i))
		}
	}
}

// childPath copies the prefix so sibling recursions never share a backing
// array.
func childPath(prefix []int, i int) []int {
	path := make([]int, len(prefix)+1)
	copy(path, prefix)
	path[len(prefix)] = i
	return path
}

func pathString(path []int) string {
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ".")
}
