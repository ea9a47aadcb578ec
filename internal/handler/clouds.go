package handler

import (
	"net/http"

	"go.uber.org/zap"

	"hostpool/internal/model"
	"hostpool/internal/service"
	"hostpool/internal/store"
)

type CloudHandler struct {
	pool   *service.Pool
	logger *zap.Logger
}

func NewCloudHandler(pool *service.Pool, logger *zap.Logger) *CloudHandler {
	return &CloudHandler{pool: pool, logger: logger}
}

type cloudJSON struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Owner       string   `json:"owner"`
	CCUsers     []string `json:"ccusers,omitempty"`
	Ticket      string   `json:"ticket"`
	QinQ        bool     `json:"qinq"`
}

func cloudToJSON(name string, meta model.CloudMeta) cloudJSON {
	return cloudJSON{
		Name:        name,
		Description: meta.Description,
		Owner:       meta.Owner,
		CCUsers:     meta.CCUsers,
		Ticket:      meta.Ticket,
		QinQ:        meta.QinQ,
	}
}

type cloudListResponse struct {
	Clouds []cloudJSON `json:"clouds"`
}

func (h *CloudHandler) List(w http.ResponseWriter, r *http.Request) {
	infos := h.pool.Clouds()
	resp := cloudListResponse{Clouds: make([]cloudJSON, 0, len(infos))}
	for _, info := range infos {
		resp.Clouds = append(resp.Clouds, cloudToJSON(info.Name, info.Meta))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CloudHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("cloud")
	meta, ok := h.pool.Cloud(name)
	if !ok {
		writeError(w, &store.NotFoundError{Kind: "cloud", Name: name})
		return
	}
	writeJSON(w, http.StatusOK, cloudToJSON(name, meta))
}

type cloudUpdateRequest struct {
	Description string   `json:"description"`
	Owner       string   `json:"owner"`
	CCUsers     []string `json:"ccusers"`
	Ticket      string   `json:"ticket"`
	QinQ        bool     `json:"qinq"`
	Force       bool     `json:"force"`
}

func (h *CloudHandler) Put(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("cloud")
	var req cloudUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	meta := model.CloudMeta{
		Description: req.Description,
		Owner:       req.Owner,
		CCUsers:     req.CCUsers,
		Ticket:      req.Ticket,
		QinQ:        req.QinQ,
	}
	if err := h.pool.UpdateCloud(r.Context(), name, meta, req.Force); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cloudToJSON(name, meta.WithDefaults()))
}

func (h *CloudHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("cloud")
	if err := h.pool.RemoveCloud(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
