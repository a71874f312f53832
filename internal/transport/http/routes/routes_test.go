package routes_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/itoshi/membership-service/internal/infra/config"
	"github.com/itoshi/membership-service/internal/infra/security"
	"github.com/itoshi/membership-service/internal/repository/memory"
	httproutes "github.com/itoshi/membership-service/internal/transport/http/routes"
	"github.com/itoshi/membership-service/internal/usecase"
)

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := zap.NewDevelopment()
	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}

	r := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: logger,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestReadyEndpointWithoutDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, _ := zap.NewDevelopment()
	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}

	r := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: logger,
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/readyz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	store := memory.NewStore()
	locker := memory.NewAccountLocker()

	issuer, err := security.NewTokenIssuer("routes-test-secret", "membership-service", time.Hour)
	if err != nil {
		t.Fatalf("security.NewTokenIssuer: %v", err)
	}

	auth, err := usecase.NewAuthService(store.Users(), issuer)
	if err != nil {
		t.Fatalf("usecase.NewAuthService: %v", err)
	}

	cfg := &config.AppConfig{
		App:      config.AppSettings{Env: "test"},
		Referral: config.ReferralSettings{LinkBaseURL: "https://membership.example.com"},
	}

	return httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: logger,
		Services: httproutes.ServiceSet{
			Auth:         auth,
			Registration: usecase.NewRegistrationService(store.Users(), security.NewPasswordValidator()),
			Activation:   usecase.NewActivationService(store.Users(), store.Transactions(), locker),
			Dashboard:    usecase.NewDashboardService(store.Users(), store.Transactions()),
		},
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal request payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerAccount(t *testing.T, r *gin.Engine, username, email, referralCode string) (id, code string) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username":      username,
		"email":         email,
		"password":      "Str0ng!Passphrase#42",
		"referral_code": referralCode,
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected status 201, got %d: %s", username, w.Code, w.Body.String())
	}

	var resp struct {
		User struct {
			ID           string `json:"id"`
			ReferralCode string `json:"referral_code"`
			IsActive     bool   `json:"is_active"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if resp.User.IsActive {
		t.Fatalf("new account must start inactive")
	}
	return resp.User.ID, resp.User.ReferralCode
}

func loginAccount(t *testing.T, r *gin.Engine, identifier string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"identifier": identifier,
		"password":   "Str0ng!Passphrase#42",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected status 200, got %d: %s", identifier, w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("login returned empty access token")
	}
	return resp.AccessToken
}

func activateAccount(t *testing.T, r *gin.Engine, userID, paymentRef string) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/v1/account/activate", map[string]string{
		"user_id":        userID,
		"payment_method": "bank_transfer",
		"transaction_id": paymentRef,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("activate %s: expected status 200, got %d: %s", userID, w.Code, w.Body.String())
	}
}

func TestRegistrationActivationDashboardFlow(t *testing.T) {
	r := newTestEngine(t)

	referrerID, referralCode := registerAccount(t, r, "alice", "alice@example.com", "")
	activateAccount(t, r, referrerID, "pay-001")

	referredID, _ := registerAccount(t, r, "bob", "bob@example.com", referralCode)
	activateAccount(t, r, referredID, "pay-002")

	token := loginAccount(t, r, "alice")

	w := doJSON(t, r, http.MethodGet, "/api/v1/dashboard/"+referrerID, nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		User struct {
			Balance       int64 `json:"balance"`
			ReferralCount int   `json:"referral_count"`
			Level         int   `json:"level"`
			IsActive      bool  `json:"is_active"`
		} `json:"user"`
		Transactions []struct {
			Type   string `json:"type"`
			Amount int64  `json:"amount"`
		} `json:"transactions"`
		Referrals []struct {
			Username string `json:"username"`
			IsActive bool   `json:"is_active"`
		} `json:"referrals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode dashboard response: %v", err)
	}

	// signup bonus 100 + first-referral commission 32% of 1000
	if resp.User.Balance != 420 {
		t.Fatalf("expected referrer balance 420, got %d", resp.User.Balance)
	}
	if resp.User.ReferralCount != 1 || resp.User.Level != 1 {
		t.Fatalf("expected referral count 1 at level 1, got count=%d level=%d",
			resp.User.ReferralCount, resp.User.Level)
	}
	if len(resp.Transactions) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(resp.Transactions))
	}
	if resp.Transactions[0].Type != "activation" || resp.Transactions[1].Type != "referral_commission" {
		t.Fatalf("unexpected ledger order: %s, %s", resp.Transactions[0].Type, resp.Transactions[1].Type)
	}
	if len(resp.Referrals) != 1 || resp.Referrals[0].Username != "bob" || !resp.Referrals[0].IsActive {
		t.Fatalf("unexpected referrals: %+v", resp.Referrals)
	}
}

func TestDashboardRequiresAuthentication(t *testing.T) {
	r := newTestEngine(t)

	userID, _ := registerAccount(t, r, "alice", "alice@example.com", "")

	w := doJSON(t, r, http.MethodGet, "/api/v1/dashboard/"+userID, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", w.Code)
	}
}

func TestDashboardRejectsCrossAccountAccess(t *testing.T) {
	r := newTestEngine(t)

	_, _ = registerAccount(t, r, "alice", "alice@example.com", "")
	bobID, _ := registerAccount(t, r, "bob", "bob@example.com", "")

	aliceToken := loginAccount(t, r, "alice")

	w := doJSON(t, r, http.MethodGet, "/api/v1/dashboard/"+bobID, nil, map[string]string{
		"Authorization": "Bearer " + aliceToken,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for foreign dashboard, got %d", w.Code)
	}
}

func TestReferralLinkEndpoint(t *testing.T) {
	r := newTestEngine(t)

	userID, code := registerAccount(t, r, "alice", "alice@example.com", "")
	token := loginAccount(t, r, "alice")

	w := doJSON(t, r, http.MethodGet, "/api/v1/dashboard/"+userID+"/referral-link", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ReferralCode string `json:"referral_code"`
		ReferralLink string `json:"referral_link"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode referral link response: %v", err)
	}
	if resp.ReferralCode != code {
		t.Fatalf("expected referral code %s, got %s", code, resp.ReferralCode)
	}

	wantLink := fmt.Sprintf("https://membership.example.com/register?ref=%s", code)
	if resp.ReferralLink != wantLink {
		t.Fatalf("expected link %s, got %s", wantLink, resp.ReferralLink)
	}
}

func TestActivationEndpointRejectsRepeat(t *testing.T) {
	r := newTestEngine(t)

	userID, _ := registerAccount(t, r, "alice", "alice@example.com", "")
	activateAccount(t, r, userID, "pay-001")

	w := doJSON(t, r, http.MethodPost, "/api/v1/account/activate", map[string]string{
		"user_id":        userID,
		"payment_method": "bank_transfer",
		"transaction_id": "pay-002",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for repeat activation, got %d: %s", w.Code, w.Body.String())
	}
}

func TestActivationEndpointUnknownUser(t *testing.T) {
	r := newTestEngine(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/account/activate", map[string]string{
		"user_id":        "missing",
		"payment_method": "bank_transfer",
		"transaction_id": "pay-001",
	}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown account, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRegisterEndpointDuplicateUsername(t *testing.T) {
	r := newTestEngine(t)

	_, _ = registerAccount(t, r, "alice", "alice@example.com", "")

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "Str0ng!Passphrase#42",
	}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409 for duplicate username, got %d: %s", w.Code, w.Body.String())
	}
}
