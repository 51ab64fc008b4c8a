package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/library-circulation/internal/application"
	"github.com/example/library-circulation/internal/testfixtures"
)

// apiHarness runs the full stack, router to SQLite, the way main wires it.
type apiHarness struct {
	server *httptest.Server
	clock  *testfixtures.Clock
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	store := testfixtures.NewSQLiteHarness(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	admin := testfixtures.NewNetworkAdmin(
		testfixtures.WithUserEmail("admin@rede.com"),
		testfixtures.WithUserPasswordHash(application.HashPassword("admin123")))
	if err := store.Users.CreateUser(context.Background(), admin); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	now := clock.NowFunc()
	idGenerator := testfixtures.NewIDGenerator("id").NextFunc()
	tokenGenerator := testfixtures.NewIDGenerator("token").NextFunc()

	sessions := application.NewSessionStore()
	authService := application.NewAuthService(store.Users, store.Libraries, sessions, application.VerifyPassword, tokenGenerator, logger)
	libraryService := application.NewLibraryService(store.Libraries, store.Audits, idGenerator, now, logger)
	userService := application.NewUserService(store.Users, store.Libraries, store.Audits, idGenerator, now, logger)
	bookService := application.NewBookService(store.Books, store.Copies, store.Audits, idGenerator, now, logger)
	eligibility := application.NewEligibilityEngine(application.DefaultLoanLimit, now)
	circulationService := application.NewCirculationService(store.Loans, store.Audits, eligibility, application.DefaultLoanPeriodDays, idGenerator, now, logger)
	catalogService := application.NewCatalogService(store.Catalog, store.Libraries)
	reportService := application.NewReportService(store.Reports)

	router := NewRouter(RouterConfig{
		Auth:           NewAuthHandler(authService, logger),
		Catalog:        NewCatalogHandler(catalogService, logger),
		Libraries:      NewLibraryHandler(libraryService, logger),
		Users:          NewUserHandler(userService, logger),
		Books:          NewBookHandler(bookService, logger),
		Circulation:    NewCirculationHandler(circulationService, logger),
		Reports:        NewReportHandler(reportService, logger),
		RequireSession: RequireSession(authService, logger),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &apiHarness{server: server, clock: clock}
}

func (h *apiHarness) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp, data
}

func (h *apiHarness) login(t *testing.T, email, password string) string {
	t.Helper()

	resp, body := h.do(t, http.MethodPost, "/sessions", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("login failed with status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected session token in login response")
	}
	return result.Token
}

func decodeInto(t *testing.T, body []byte, target any) {
	t.Helper()
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("failed to decode response %s: %v", body, err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newAPIHarness(t)

	resp, body := h.do(t, http.MethodPost, "/sessions", "", map[string]string{
		"email":    "admin@rede.com",
		"password": "errada",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "AUTH_INVALID_CREDENTIALS") {
		t.Fatalf("expected credential error code, got %s", body)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h := newAPIHarness(t)

	resp, _ := h.do(t, http.MethodGet, "/libraries", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodGet, "/libraries", "token-falso", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with unknown token, got %d", resp.StatusCode)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	h := newAPIHarness(t)
	token := h.login(t, "admin@rede.com", "admin123")

	resp, _ := h.do(t, http.MethodDelete, "/sessions/current", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on logout, got %d", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodGet, "/libraries", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

// TestCirculationWorkflow walks the happy path end to end: the administrator
// sets up a unit, staff and catalog; the coordinator enrolls a reader, lends
// a copy out and takes it back.
func TestCirculationWorkflow(t *testing.T) {
	h := newAPIHarness(t)
	adminToken := h.login(t, "admin@rede.com", "admin123")

	var library struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	resp, body := h.do(t, http.MethodPost, "/libraries", adminToken, map[string]string{
		"name": "Biblioteca Central",
		"city": "Capital",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to create library: %d %s", resp.StatusCode, body)
	}
	decodeInto(t, body, &library)

	resp, body = h.do(t, http.MethodPost, "/staff", adminToken, map[string]string{
		"name":       "Coordenadora",
		"email":      "coord@rede.com",
		"password":   "segredo",
		"role":       "coord_local",
		"library_id": library.ID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to create coordinator: %d %s", resp.StatusCode, body)
	}

	var book struct {
		ID string `json:"id"`
	}
	resp, body = h.do(t, http.MethodPost, "/books", adminToken, map[string]any{
		"title":  "Dom Casmurro",
		"author": "Machado de Assis",
		"year":   1899,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to catalog book: %d %s", resp.StatusCode, body)
	}
	decodeInto(t, body, &book)

	coordToken := h.login(t, "coord@rede.com", "segredo")

	var copyRecord struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	resp, body = h.do(t, http.MethodPost, "/copies", coordToken, map[string]string{
		"book_id": book.ID,
		"code":    "EX-001",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to add copy: %d %s", resp.StatusCode, body)
	}
	decodeInto(t, body, &copyRecord)
	if copyRecord.Status != "disponivel" {
		t.Fatalf("expected new copy available, got %q", copyRecord.Status)
	}

	var reader struct {
		ID string `json:"id"`
	}
	resp, body = h.do(t, http.MethodPost, "/readers", coordToken, map[string]any{
		"name":    "Maria Silva",
		"email":   "maria@example.com",
		"consent": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to register reader: %d %s", resp.StatusCode, body)
	}
	decodeInto(t, body, &reader)

	// The public catalog needs no session.
	resp, body = h.do(t, http.MethodGet, "/catalog?q=casmurro", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("public search failed: %d %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "Dom Casmurro") {
		t.Fatalf("expected catalog hit, got %s", body)
	}

	var loan struct {
		ID      string `json:"id"`
		DueDate string `json:"due_date"`
		Status  string `json:"status"`
	}
	resp, body = h.do(t, http.MethodPost, "/loans", coordToken, map[string]string{
		"user_id": reader.ID,
		"copy_id": copyRecord.ID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to checkout: %d %s", resp.StatusCode, body)
	}
	decodeInto(t, body, &loan)
	if loan.Status != "aberto" {
		t.Fatalf("expected open loan, got %q", loan.Status)
	}
	wantDue := h.clock.Now().AddDate(0, 0, application.DefaultLoanPeriodDays).Format("2006-01-02")
	if loan.DueDate != wantDue {
		t.Fatalf("expected due date %s, got %s", wantDue, loan.DueDate)
	}

	// A second checkout of the same copy is refused.
	resp, body = h.do(t, http.MethodPost, "/loans", coordToken, map[string]string{
		"user_id": reader.ID,
		"copy_id": copyRecord.ID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for unavailable copy, got %d: %s", resp.StatusCode, body)
	}

	var returned struct {
		Loan struct {
			Status string `json:"status"`
		} `json:"loan"`
		DaysLate     int    `json:"days_late"`
		BlockedUntil string `json:"blocked_until"`
	}
	resp, body = h.do(t, http.MethodPost, "/loans/"+loan.ID+"/return", coordToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("failed to return loan: %d %s", resp.StatusCode, body)
	}
	decodeInto(t, body, &returned)
	if returned.Loan.Status != "devolvido" {
		t.Fatalf("expected returned loan, got %q", returned.Loan.Status)
	}
	if returned.DaysLate != 0 || returned.BlockedUntil != "" {
		t.Fatalf("expected on-time return, got %+v", returned)
	}

	resp, body = h.do(t, http.MethodGet, "/reports/loans.csv", coordToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("failed to export CSV: %d %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected CSV content type, got %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus 1 row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "Maria Silva") || !strings.Contains(lines[1], "devolvido") {
		t.Fatalf("unexpected CSV row: %q", lines[1])
	}
}

// openLoan seeds a unit, coordinator, reader and copy, checks the copy out
// and returns the pieces later assertions need.
type openLoan struct {
	coordToken string
	readerID   string
	copyID     string
	loanID     string
}

func (h *apiHarness) checkoutFixture(t *testing.T) openLoan {
	t.Helper()
	adminToken := h.login(t, "admin@rede.com", "admin123")

	var library struct {
		ID string `json:"id"`
	}
	_, body := h.do(t, http.MethodPost, "/libraries", adminToken, map[string]string{
		"name": "Biblioteca Central",
		"city": "Capital",
	})
	decodeInto(t, body, &library)

	h.do(t, http.MethodPost, "/staff", adminToken, map[string]string{
		"name":       "Coordenadora",
		"email":      "coord@rede.com",
		"password":   "segredo",
		"role":       "coord_local",
		"library_id": library.ID,
	})

	var book struct {
		ID string `json:"id"`
	}
	_, body = h.do(t, http.MethodPost, "/books", adminToken, map[string]string{
		"title":  "Vidas Secas",
		"author": "Graciliano Ramos",
	})
	decodeInto(t, body, &book)

	coordToken := h.login(t, "coord@rede.com", "segredo")

	var copyRecord struct {
		ID string `json:"id"`
	}
	_, body = h.do(t, http.MethodPost, "/copies", coordToken, map[string]string{
		"book_id": book.ID,
		"code":    "EX-001",
	})
	decodeInto(t, body, &copyRecord)

	var reader struct {
		ID string `json:"id"`
	}
	_, body = h.do(t, http.MethodPost, "/readers", coordToken, map[string]any{
		"name":    "João Souza",
		"consent": true,
	})
	decodeInto(t, body, &reader)

	var loan struct {
		ID string `json:"id"`
	}
	resp, body := h.do(t, http.MethodPost, "/loans", coordToken, map[string]string{
		"user_id": reader.ID,
		"copy_id": copyRecord.ID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("failed to checkout: %d %s", resp.StatusCode, body)
	}
	decodeInto(t, body, &loan)

	return openLoan{coordToken: coordToken, readerID: reader.ID, copyID: copyRecord.ID, loanID: loan.ID}
}

func TestLateReturnBlocksReader(t *testing.T) {
	h := newAPIHarness(t)
	fixture := h.checkoutFixture(t)
	coordToken := fixture.coordToken

	// Five days past the due date.
	h.clock.Set(h.clock.Now().AddDate(0, 0, application.DefaultLoanPeriodDays+5))

	var returned struct {
		DaysLate     int    `json:"days_late"`
		BlockedUntil string `json:"blocked_until"`
	}
	resp, body := h.do(t, http.MethodPost, "/loans/"+fixture.loanID+"/return", coordToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("failed to return loan: %d %s", resp.StatusCode, body)
	}
	decodeInto(t, body, &returned)
	if returned.DaysLate != 5 {
		t.Fatalf("expected 5 days late, got %d", returned.DaysLate)
	}
	wantBlock := h.clock.Now().AddDate(0, 0, 10).Format("2006-01-02")
	if returned.BlockedUntil != wantBlock {
		t.Fatalf("expected block until %s, got %s", wantBlock, returned.BlockedUntil)
	}

	// The blocked reader cannot take a new loan.
	resp, body = h.do(t, http.MethodPost, "/loans", coordToken, map[string]string{
		"user_id": fixture.readerID,
		"copy_id": fixture.copyID,
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for blocked reader, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "bloqueado") {
		t.Fatalf("expected block reason in response, got %s", body)
	}
}

// A return exactly one day past the due date stays inside the tolerance
// window, even though the stored due date keeps no time of day. The reader
// must come out of it unblocked and able to borrow again.
func TestReturnOneDayPastDueDoesNotBlock(t *testing.T) {
	h := newAPIHarness(t)
	fixture := h.checkoutFixture(t)

	h.clock.Set(h.clock.Now().AddDate(0, 0, application.DefaultLoanPeriodDays+1))

	var returned struct {
		DaysLate     int    `json:"days_late"`
		BlockedUntil string `json:"blocked_until"`
	}
	resp, body := h.do(t, http.MethodPost, "/loans/"+fixture.loanID+"/return", fixture.coordToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("failed to return loan: %d %s", resp.StatusCode, body)
	}
	decodeInto(t, body, &returned)
	if returned.DaysLate != 0 {
		t.Fatalf("expected zero days late, got %d", returned.DaysLate)
	}
	if returned.BlockedUntil != "" {
		t.Fatalf("tolerance return must not block, got %s", returned.BlockedUntil)
	}

	resp, body = h.do(t, http.MethodPost, "/loans", fixture.coordToken, map[string]string{
		"user_id": fixture.readerID,
		"copy_id": fixture.copyID,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("reader must be able to borrow again, got %d: %s", resp.StatusCode, body)
	}
}

func TestValidationErrorsAreLocalized(t *testing.T) {
	h := newAPIHarness(t)
	adminToken := h.login(t, "admin@rede.com", "admin123")

	resp, body := h.do(t, http.MethodPost, "/libraries", adminToken, map[string]string{})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "Há erros nos dados informados.") {
		t.Fatalf("expected localized validation message, got %s", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newAPIHarness(t)

	resp, _ := h.do(t, http.MethodDelete, "/catalog", "", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); allow != http.MethodGet {
		t.Fatalf("expected Allow header %q, got %q", http.MethodGet, allow)
	}
}
