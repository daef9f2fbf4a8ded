package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"ardhi/contexts/registry-core/search-application-service/application/queries"
	registryhttp "ardhi/contexts/registry-core/search-application-service/transport/http"
)

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req registryhttp.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.CreateApplicationHandler(r.Context(), registryActor(identity), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	resp, err := s.registry.Handler.ListApplicationsHandler(r.Context(), registryActor(identity), listFilter(r.URL.Query()))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSubmitted(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	resp, err := s.registry.Handler.ListSubmittedHandler(r.Context(), registryActor(identity), listFilter(r.URL.Query()))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAssigned(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	resp, err := s.registry.Handler.ListAssignedHandler(r.Context(), registryActor(identity), listFilter(r.URL.Query()))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	resp, err := s.registry.Handler.GetApplicationHandler(r.Context(), registryActor(identity), r.PathValue("application_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req registryhttp.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.RecordPaymentHandler(r.Context(), registryActor(identity), r.PathValue("application_id"), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	s.observeTransition("submitted")
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	resp, err := s.registry.Handler.GetPaymentHandler(r.Context(), registryActor(identity), r.PathValue("application_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssignRegistrar(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req registryhttp.AssignRegistrarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.AssignRegistrarHandler(r.Context(), registryActor(identity), r.PathValue("application_id"), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	s.observeTransition("assigned")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveApplication(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req registryhttp.ApproveApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.ApproveApplicationHandler(r.Context(), registryActor(identity), r.PathValue("application_id"), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	s.observeTransition("completed")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectApplication(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req registryhttp.RejectApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.RejectApplicationHandler(r.Context(), registryActor(identity), r.PathValue("application_id"), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	s.observeTransition("rejected")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	resp, err := s.registry.Handler.ListReviewsHandler(r.Context(), registryActor(identity), r.PathValue("application_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleFetchCertificate streams the signed certificate file rather than a
// JSON envelope.
func (s *Server) handleFetchCertificate(w http.ResponseWriter, r *http.Request) {
	identity, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	certificate, data, err := s.registry.Handler.FetchCertificateHandler(r.Context(), registryActor(identity), r.PathValue("application_id"))
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "certificate-"+certificate.ApplicationID+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func listFilter(query url.Values) queries.ListFilter {
	return queries.ListFilter{
		Status:          query.Get("status"),
		ParcelNumber:    query.Get("parcel_number"),
		ReferenceNumber: query.Get("reference_number"),
	}
}
