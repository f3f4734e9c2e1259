package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/offers", s.HandleSearchOffers)
	mux.HandleFunc("GET /api/offers/{id}", s.HandleGetOffer)
	mux.HandleFunc("POST /api/offers", s.HandleCreateOffer)
	mux.HandleFunc("PUT /api/offers/{id}", s.HandleUpdateOffer)
	mux.HandleFunc("POST /api/offers/{id}/hide", s.HandleHideOffer)
	mux.HandleFunc("PUT /api/offers/{id}/enable", s.HandleEnableOffer)
	mux.HandleFunc("GET /api/firehose", s.HandleFirehose)
	mux.HandleFunc("GET /api/firehose/ws", s.HandleFirehoseWS)
	mux.HandleFunc("GET /api/stats", s.HandleStats)
	mux.HandleFunc("GET /health", s.HandleHealth)
}
