package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mvxid/indexer/internal/cache"
	"github.com/mvxid/indexer/internal/pricing"
)

const defaultListSize = 25

// queryPagination reads page and size from the query string. Page numbering
// starts at 1; page 0 and page 1 both mean the first page.
func queryPagination(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = defaultListSize
	}
	return page, size
}

func isSubdomainType(r *http.Request) bool {
	return r.URL.Query().Get("type") == "subdomain"
}

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	page, size := queryPagination(r)

	domains, total, err := s.store.Domains(r.Context(), isSubdomainType(r), page, size)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listResponse{Data: toDomainAccountDTOs(domains), TotalCount: total})
}

// handleDomain returns the stored domain, or an availability quote priced at
// the current spot rate when the name is unregistered
func (s *Server) handleDomain(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	domain, err := s.store.DomainByName(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if domain != nil {
		s.writeJSON(w, http.StatusOK, toDomainDTO(domain))
		return
	}

	priceEgld, priceUsd := "0", "0"
	spot, ok, err := cache.GetFloat(r.Context(), s.cache, cache.KeyEgldPrice)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ok {
		if egld, usd, err := pricing.DomainPrice(name, spot); err == nil {
			priceEgld, priceUsd = egld, usd
		}
	}
	s.writeJSON(w, http.StatusOK, toAvailableDomainDTO(name, priceEgld, priceUsd))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.store.ProfileByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toProfileDTO(profile))
}

func (s *Server) handleSubdomains(w http.ResponseWriter, r *http.Request) {
	page, size := queryPagination(r)

	domains, total, err := s.store.SubdomainsOf(r.Context(), chi.URLParam(r, "name"), page, size)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listResponse{Data: toSubdomainDTOs(domains), TotalCount: total})
}

func (s *Server) handleAccountDomains(w http.ResponseWriter, r *http.Request) {
	page, size := queryPagination(r)
	address := chi.URLParam(r, "address")

	domains, total, err := s.store.DomainsByOwner(r.Context(), address, isSubdomainType(r), page, size)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, listResponse{Data: toDomainAccountDTOs(domains), TotalCount: total})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.logger.Error().Err(err).Msg("Request failed")
	s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
