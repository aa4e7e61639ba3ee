package handlers

import (
	"net/http"

	"Mediarr/database"
)

type HealthHandler struct {
	DBs *database.Databases
}

func NewHealthHandler(dbs *database.Databases) *HealthHandler {
	return &HealthHandler{DBs: dbs}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	datastores := h.DBs.Ping(r.Context())

	status := "ok"
	code := http.StatusOK
	for _, s := range datastores {
		if s != "ok" {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, code, map[string]any{"status": status, "datastores": datastores})
}
