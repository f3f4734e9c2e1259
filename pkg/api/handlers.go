package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/unijobs/unijobs/pkg/core"
	"github.com/unijobs/unijobs/pkg/search"
	"github.com/unijobs/unijobs/pkg/storage"
	"github.com/unijobs/unijobs/pkg/version"
)

// HandleSearchOffers serves offer listing and full-text search, paginated
// with continuation tokens.
func (s *Server) HandleSearchOffers(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchParams(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid parameters", err.Error())
		return
	}

	if s.isAdmin(r) {
		params.Visibility.ShowAdminReason = true
		params.Visibility.ShowHidden = r.URL.Query().Get("showHidden") == "true"
	}

	page, err := s.searcher.Search(params)
	if errors.Is(err, search.ErrInvalidToken) {
		s.writeError(w, http.StatusUnprocessableEntity, "Invalid query token", err.Error())
		return
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Search failed", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, page)
}

// parseSearchParams maps query string values onto search parameters.
// Repeatable parameters (jobType, fields, technologies) may be given
// multiple times.
func parseSearchParams(q url.Values) (search.Params, error) {
	params := search.Params{
		Value: q.Get("value"),
		Token: q.Get("queryToken"),
		Filters: core.SearchFilters{
			JobTypes:     q["jobType"],
			Fields:       q["fields"],
			Technologies: q["technologies"],
		},
		SortBy: q.Get("sortBy"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return params, errors.New("limit must be an integer")
		}
		params.Limit = limit
	}
	if v := q.Get("jobMinDuration"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return params, errors.New("jobMinDuration must be an integer")
		}
		params.Filters.JobMinDuration = &d
	}
	if v := q.Get("jobMaxDuration"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return params, errors.New("jobMaxDuration must be an integer")
		}
		params.Filters.JobMaxDuration = &d
	}
	if v := q.Get("sortDescending"); v != "" {
		desc, err := strconv.ParseBool(v)
		if err != nil {
			return params, errors.New("sortDescending must be a boolean")
		}
		params.SortDescending = &desc
	}

	return params, nil
}

func (s *Server) HandleGetOffer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	offer, err := s.store.GetByID(id)
	if errors.Is(err, storage.ErrOfferNotFound) {
		s.writeError(w, http.StatusNotFound, "Offer not found", id)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to fetch offer", err.Error())
		return
	}

	admin := s.isAdmin(r)
	if offer.IsHidden && !admin {
		s.writeError(w, http.StatusNotFound, "Offer not found", id)
		return
	}
	if !admin {
		offer.AdminReason = ""
	}

	s.writeJSON(w, http.StatusOK, offer)
}

func (s *Server) HandleCreateOffer(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r) {
		s.writeError(w, http.StatusForbidden, "Forbidden", "Admin key required")
		return
	}

	var offer core.Offer
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	// Identity and hidden state are store-owned.
	offer.ID = ""
	offer.IsHidden = false
	offer.HiddenReason = ""
	offer.AdminReason = ""

	if err := s.store.Create(&offer); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid offer", err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, offer)
}

func (s *Server) HandleUpdateOffer(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r) {
		s.writeError(w, http.StatusForbidden, "Forbidden", "Admin key required")
		return
	}

	var offer core.Offer
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	offer.ID = r.PathValue("id")

	err := s.store.Update(&offer)
	if errors.Is(err, storage.ErrOfferNotFound) {
		s.writeError(w, http.StatusNotFound, "Offer not found", offer.ID)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid offer", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, offer)
}

func (s *Server) HandleHideOffer(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r) {
		s.writeError(w, http.StatusForbidden, "Forbidden", "Admin key required")
		return
	}

	var req HideOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	switch req.Reason {
	case core.HiddenReasonAdminRequest, core.HiddenReasonCompanyRequest,
		core.HiddenReasonCompanyBlocked, core.HiddenReasonCompanyDisabled:
	default:
		s.writeError(w, http.StatusBadRequest, "Invalid reason", req.Reason)
		return
	}

	id := r.PathValue("id")
	err := s.store.Hide(id, req.Reason, req.AdminReason)
	if errors.Is(err, storage.ErrOfferNotFound) {
		s.writeError(w, http.StatusNotFound, "Offer not found", id)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to hide offer", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleEnableOffer(w http.ResponseWriter, r *http.Request) {
	if !s.isAdmin(r) {
		s.writeError(w, http.StatusForbidden, "Forbidden", "Admin key required")
		return
	}

	id := r.PathValue("id")
	err := s.store.Enable(id)
	if errors.Is(err, storage.ErrOfferNotFound) {
		s.writeError(w, http.StatusNotFound, "Offer not found", id)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to enable offer", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(storage.FormatTime(time.Now()))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to get stats", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
	}

	s.writeJSON(w, http.StatusOK, health)
}
