package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all API routes onto a ServeMux.
func NewRouter(h *Handler, health *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/students", h.CreateStudent)
	mux.HandleFunc("GET /api/students", h.ListStudents)
	mux.HandleFunc("GET /api/students/export.csv", h.ExportStudents)
	mux.HandleFunc("POST /api/students/import", h.ImportStudents)
	mux.HandleFunc("POST /api/students/check-duplicates", h.CheckDuplicates)
	mux.HandleFunc("GET /api/students/{id}", h.GetStudent)
	mux.HandleFunc("PUT /api/students/{id}", h.UpdateStudent)
	mux.HandleFunc("DELETE /api/students/{id}", h.DeleteStudent)

	mux.HandleFunc("GET /api/matching/presets", h.ListPresets)
	mux.HandleFunc("GET /api/matching/presets/{name}", h.GetPreset)
	mux.HandleFunc("PUT /api/matching/profiles/{name}", h.SaveProfile)
	mux.HandleFunc("GET /api/matching/profiles/{name}", h.GetProfile)
	mux.HandleFunc("DELETE /api/matching/profiles/{name}", h.DeleteProfile)

	mux.HandleFunc("GET /api/registry", h.ListSchemas)
	mux.HandleFunc("POST /api/registry/{type}/validate", h.ValidateRecord)

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
