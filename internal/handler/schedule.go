package handler

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"hostpool/internal/service"
	"hostpool/internal/store"
	"hostpool/internal/util"
)

type ScheduleHandler struct {
	pool   *service.Pool
	logger *zap.Logger
}

func NewScheduleHandler(pool *service.Pool, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{pool: pool, logger: logger}
}

type scheduleAddRequest struct {
	Cloud string `json:"cloud"`
	Start string `json:"start"`
	End   string `json:"end"`
}

func (h *ScheduleHandler) Add(w http.ResponseWriter, r *http.Request) {
	host := r.PathValue("host")
	var req scheduleAddRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	start, err := util.ParseStamp(req.Start)
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := util.ParseStamp(req.End)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.pool.AddSchedule(r.Context(), host, req.Cloud, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"id": id})
}

type scheduleModRequest struct {
	Cloud *string `json:"cloud"`
	Start *string `json:"start"`
	End   *string `json:"end"`
}

func (h *ScheduleHandler) Modify(w http.ResponseWriter, r *http.Request) {
	host := r.PathValue("host")
	id, err := scheduleID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req scheduleModRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var start, end *time.Time
	if req.Start != nil {
		t, err := util.ParseStamp(*req.Start)
		if err != nil {
			writeError(w, err)
			return
		}
		start = &t
	}
	if req.End != nil {
		t, err := util.ParseStamp(*req.End)
		if err != nil {
			writeError(w, err)
			return
		}
		end = &t
	}

	if err := h.pool.ModifySchedule(r.Context(), host, id, req.Cloud, start, end); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScheduleHandler) Remove(w http.ResponseWriter, r *http.Request) {
	host := r.PathValue("host")
	id, err := scheduleID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.pool.RemoveSchedule(r.Context(), host, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func scheduleID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &store.ValidationError{Reason: "override id must be an integer: " + raw}
	}
	return id, nil
}
