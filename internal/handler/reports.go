package handler

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"hostpool/internal/provision"
	"hostpool/internal/schedule"
	"hostpool/internal/service"
	"hostpool/internal/store"
	"hostpool/internal/util"
)

type ReportHandler struct {
	pool   *service.Pool
	logger *zap.Logger
}

func NewReportHandler(pool *service.Pool, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{pool: pool, logger: logger}
}

type summaryRow struct {
	Cloud       string   `json:"cloud"`
	Description string   `json:"description"`
	Count       int      `json:"count"`
	Hosts       []string `json:"hosts"`
}

type summaryResponse struct {
	Clouds []summaryRow `json:"clouds"`
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	at, err := queryDate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	full := r.URL.Query().Get("full") == "1"

	rows := h.pool.Summary(at, full)
	resp := summaryResponse{Clouds: make([]summaryRow, 0, len(rows))}
	for _, row := range rows {
		resp.Clouds = append(resp.Clouds, summaryRow{
			Cloud:       row.Cloud,
			Description: row.Description,
			Count:       len(row.Hosts),
			Hosts:       row.Hosts,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type gridCellJSON struct {
	Day        int    `json:"day"`
	Cloud      string `json:"cloud"`
	OverrideID *int   `json:"overrideId,omitempty"`
}

type gridResponse struct {
	Year  int                       `json:"year"`
	Month int                       `json:"month"`
	Days  int                       `json:"days"`
	Hosts map[string][]gridCellJSON `json:"hosts"`
}

func (h *ReportHandler) Grid(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, &store.ValidationError{Reason: "year must be an integer: " + raw})
			return
		}
		year = y
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			writeError(w, &store.ValidationError{Reason: "month must be 1-12: " + raw})
			return
		}
		month = time.Month(m)
	}

	grid := h.pool.Grid(year, month)
	resp := gridResponse{
		Year:  year,
		Month: int(month),
		Days:  schedule.DaysIn(year, month),
		Hosts: make(map[string][]gridCellJSON, len(grid)),
	}
	for host, cells := range grid {
		row := make([]gridCellJSON, 0, len(cells))
		for _, c := range cells {
			cell := gridCellJSON{Day: c.Day, Cloud: c.Cloud}
			if c.HasOverride {
				id := c.OverrideID
				cell.OverrideID = &id
			}
			row = append(row, cell)
		}
		resp.Hosts[host] = row
	}
	writeJSON(w, http.StatusOK, resp)
}

type moveJSON struct {
	Host string `json:"host"`
	From string `json:"from"`
	To   string `json:"to"`
}

type movesResponse struct {
	DryRun bool       `json:"dryRun,omitempty"`
	Moves  []moveJSON `json:"moves"`
}

func (h *ReportHandler) PlanMoves(w http.ResponseWriter, r *http.Request) {
	at, err := queryDate(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, movesResponse{DryRun: true, Moves: movesToJSON(h.pool.PlanMoves(at))})
}

type applyMovesRequest struct {
	Date   string `json:"date"`
	DryRun bool   `json:"dryRun"`
}

func (h *ReportHandler) ApplyMoves(w http.ResponseWriter, r *http.Request) {
	var req applyMovesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var at time.Time
	if req.Date != "" {
		t, err := util.ParseStamp(req.Date)
		if err != nil {
			writeError(w, err)
			return
		}
		at = t
	}

	moves, err := h.pool.ApplyMoves(r.Context(), at, req.DryRun)
	if err != nil {
		h.logger.Error("applying moves failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, movesResponse{DryRun: req.DryRun, Moves: movesToJSON(moves)})
}

func movesToJSON(moves []provision.Move) []moveJSON {
	out := make([]moveJSON, 0, len(moves))
	for _, m := range moves {
		out = append(out, moveJSON{Host: m.Host, From: m.From, To: m.To})
	}
	return out
}
