package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	identityservice "ardhi/contexts/identity-access/identity-service"
	identityhttp "ardhi/contexts/identity-access/identity-service/transport/http"
	searchapplicationservice "ardhi/contexts/registry-core/search-application-service"
	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	"ardhi/contexts/registry-core/search-application-service/ports"
	registryhttp "ardhi/contexts/registry-core/search-application-service/transport/http"
)

func newTestServer() *Server {
	return New(
		searchapplicationservice.NewInMemoryModule(nil, slog.Default()),
		identityservice.NewInMemoryModule("test-secret", slog.Default()),
		nil,
		slog.Default(),
		":0",
	)
}

// registerAndLogin provisions a user through the identity module and mirrors
// registry staff into the registrar directory, the way the projection does in
// the postgres wiring.
func registerAndLogin(t *testing.T, server *Server, username string, role string, registry string) (string, string) {
	t.Helper()
	ctx := context.Background()

	registered, err := server.identity.Handler.Register(ctx, identityhttp.RegisterRequest{
		Username: username,
		Password: "long-enough",
		County:   "Nairobi",
		Registry: registry,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("register %s failed: %v", username, err)
	}

	if role == "registrar" || role == "registrar_in_charge" {
		parsedRole, _ := entities.ParseRole(role)
		server.registry.Store.SeedUser(ports.RegistrarRecord{
			UserID:   registered.User.UserID,
			Username: username,
			Role:     parsedRole,
			Registry: registry,
			Active:   true,
		})
	}

	login, err := server.identity.Handler.Login(ctx, identityhttp.LoginRequest{Username: username, Password: "long-enough"})
	if err != nil {
		t.Fatalf("login %s failed: %v", username, err)
	}
	return registered.User.UserID, login.Token
}

func doJSON(t *testing.T, server *Server, method string, path string, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	server := newTestServer()

	rr := doJSON(t, server, http.MethodPost, "/api/applications", "", registryhttp.CreateApplicationRequest{
		ParcelNumber: "NAIROBI/BLOCK1/742",
		Purpose:      "transfer",
		County:       "Nairobi",
		Registry:     "nairobi-central",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/applications", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer tampered-token")
	rr = httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered token, got %d", rr.Code)
	}
}

func TestApplicationWorkflowOverHTTP(t *testing.T) {
	server := newTestServer()

	_, applicantToken := registerAndLogin(t, server, "wanjiku", "normal", "")
	_, ricToken := registerAndLogin(t, server, "ric", "registrar_in_charge", "nairobi-central")
	registrarID, registrarToken := registerAndLogin(t, server, "reg", "registrar", "nairobi-central")
	_, strangerToken := registerAndLogin(t, server, "stranger", "normal", "")

	rr := doJSON(t, server, http.MethodPost, "/api/applications", applicantToken, registryhttp.CreateApplicationRequest{
		ParcelNumber: "NAIROBI/BLOCK1/742",
		Purpose:      "transfer due diligence",
		County:       "Nairobi",
		Registry:     "nairobi-central",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	var created registryhttp.CreateApplicationResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	applicationID := created.Application.ApplicationID

	rr = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/applications/%s/payment", applicationID), applicantToken, registryhttp.RecordPaymentRequest{Amount: 900})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("underpayment expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/applications/%s/payment", applicationID), applicantToken, registryhttp.RecordPaymentRequest{Amount: entities.SearchFeeAmount})
	if rr.Code != http.StatusCreated {
		t.Fatalf("payment expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	// Applicants cannot assign registrars.
	rr = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/applications/%s/assign", applicationID), applicantToken, registryhttp.AssignRegistrarRequest{RegistrarID: registrarID})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("assign by applicant expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/applications/%s/assign", applicationID), ricToken, registryhttp.AssignRegistrarRequest{RegistrarID: registrarID})
	if rr.Code != http.StatusOK {
		t.Fatalf("assign expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/applications/%s/approve", applicationID), registrarToken, registryhttp.ApproveApplicationRequest{CertificateFile: []byte("signed body")})
	if rr.Code != http.StatusOK {
		t.Fatalf("approve expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/applications/%s/certificate", applicationID), applicantToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("certificate download expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != "application/octet-stream" {
		t.Fatalf("expected octet-stream download, got %s", got)
	}

	// Non-owners get a 404, never a 403, so existence stays hidden.
	rr = doJSON(t, server, http.MethodGet, fmt.Sprintf("/api/applications/%s/certificate", applicationID), strangerToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("stranger certificate fetch expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUserRoutesEnforceRoleScopes(t *testing.T) {
	server := newTestServer()

	_, applicantToken := registerAndLogin(t, server, "plain", "normal", "")
	registrarID, _ := registerAndLogin(t, server, "reg", "registrar", "nairobi-central")
	_, ricToken := registerAndLogin(t, server, "ric", "registrar_in_charge", "nairobi-central")

	rr := doJSON(t, server, http.MethodGet, "/api/users?role=registrar", applicantToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("roster for applicant expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodGet, "/api/users?role=registrar", ricToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("roster expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var roster identityhttp.ListUsersResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &roster); err != nil {
		t.Fatalf("decode roster: %v", err)
	}
	if len(roster.Items) != 1 || roster.Items[0].UserID != registrarID {
		t.Fatalf("unexpected roster: %+v", roster.Items)
	}

	rr = doJSON(t, server, http.MethodPost, "/api/users/"+registrarID+"/deactivate", ricToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("deactivate expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}
