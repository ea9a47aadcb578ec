package handler

import (
	"net/http"

	"go.uber.org/zap"

	"hostpool/internal/schedule"
	"hostpool/internal/service"
	"hostpool/internal/store"
	"hostpool/internal/util"
)

type HostHandler struct {
	pool   *service.Pool
	logger *zap.Logger
}

func NewHostHandler(pool *service.Pool, logger *zap.Logger) *HostHandler {
	return &HostHandler{pool: pool, logger: logger}
}

type hostListResponse struct {
	Hosts []string `json:"hosts"`
}

func (h *HostHandler) List(w http.ResponseWriter, r *http.Request) {
	if cloud := r.URL.Query().Get("cloud"); cloud != "" {
		at, err := queryDate(r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hostListResponse{Hosts: h.pool.HostsIn(cloud, at)})
		return
	}
	writeJSON(w, http.StatusOK, hostListResponse{Hosts: h.pool.Hosts()})
}

type overrideJSON struct {
	ID    int    `json:"id"`
	Cloud string `json:"cloud"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type hostResponse struct {
	Host         string         `json:"host"`
	DefaultCloud string         `json:"defaultCloud"`
	CurrentCloud string         `json:"currentCloud"`
	OverrideID   *int           `json:"overrideId,omitempty"`
	Overrides    []overrideJSON `json:"overrides"`
}

func (h *HostHandler) Get(w http.ResponseWriter, r *http.Request) {
	host := r.PathValue("host")
	at, err := queryDate(r)
	if err != nil {
		writeError(w, err)
		return
	}

	listing := h.pool.HostListing(host, at)
	if !listing.Known {
		writeError(w, &store.NotFoundError{Kind: "host", Name: host})
		return
	}

	writeJSON(w, http.StatusOK, hostToJSON(host, listing))
}

func hostToJSON(host string, listing schedule.HostSchedule) hostResponse {
	resp := hostResponse{
		Host:         host,
		DefaultCloud: listing.DefaultCloud,
		CurrentCloud: listing.CurrentCloud,
		Overrides:    make([]overrideJSON, 0, len(listing.Overrides)),
	}
	if listing.HasOverride {
		id := listing.OverrideID
		resp.OverrideID = &id
	}
	for _, o := range listing.Overrides {
		resp.Overrides = append(resp.Overrides, overrideJSON{
			ID:    o.ID,
			Cloud: o.Cloud,
			Start: util.FormatStamp(o.Start),
			End:   util.FormatStamp(o.End),
		})
	}
	return resp
}

type hostUpdateRequest struct {
	Cloud string `json:"cloud"`
	Force bool   `json:"force"`
}

func (h *HostHandler) Put(w http.ResponseWriter, r *http.Request) {
	host := r.PathValue("host")
	var req hostUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Cloud == "" {
		writeError(w, &store.ValidationError{Reason: "cloud is required"})
		return
	}

	if err := h.pool.UpdateHost(r.Context(), host, req.Cloud, req.Force); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"host": host, "cloud": req.Cloud})
}

func (h *HostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	host := r.PathValue("host")
	if err := h.pool.RemoveHost(r.Context(), host); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
