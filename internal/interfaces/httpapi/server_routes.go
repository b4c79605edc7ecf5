package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics == nil {
		return
	}

	mux.Handle("GET /metrics", metrics)
}

func registerLeagueRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueCode}", handler.GetLeague)
	mux.HandleFunc("GET /v1/fixtures", handler.ListFixtures)
}

func registerReportRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/reports", handler.CreateReport)
	mux.HandleFunc("GET /v1/reports", handler.ListReports)
	mux.HandleFunc("GET /v1/reports/{taskID}", handler.GetReport)
	mux.HandleFunc("GET /v1/reports/{taskID}/download", handler.DownloadReport)
}
