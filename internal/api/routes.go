package api

import "net/http"

func RegisterRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /health", handler.HandleHealth)
	mux.HandleFunc("POST /count", handler.HandleCount)
	mux.HandleFunc("POST /sentences", handler.HandleSentences)
}
