package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/bookkeeping_core/internal/core/services"
	"github.com/SscSPs/bookkeeping_core/internal/handlers"
	"github.com/SscSPs/bookkeeping_core/internal/middleware"
	"github.com/SscSPs/bookkeeping_core/internal/platform/config"
	"github.com/SscSPs/bookkeeping_core/internal/repositories/database/memory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testSecret = "handler-test-secret"
	testIssuer = "bookkeeping-test"
	testUser   = "clerk-7"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret: testSecret,
		JWTIssuer: testIssuer,
		RateLimit: "1000-M",
		Posting: config.PostingAccounts{
			ReceivableCode: "1200",
			PayableCode:    "2100",
			RevenueCode:    "4000",
			ExpenseCode:    "6000",
			OutputTaxCode:  "2300",
			InputTaxCode:   "1400",
		},
		OpenItemsPageSize: 50,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := services.NewServiceContainer(cfg, memory.NewRepositoryProvider(memory.NewStore()))
	router, err := handlers.NewRouter(cfg, logger, svc)
	require.NoError(t, err)
	return router
}

type APITestSuite struct {
	suite.Suite
	router *gin.Engine
	token  string
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (suite *APITestSuite) SetupTest() {
	suite.router = newTestRouter(suite.T(), testConfig())
	token, err := middleware.IssueToken(testSecret, testIssuer, testUser, time.Hour)
	suite.Require().NoError(err)
	suite.token = token
}

func (suite *APITestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) decode(w *httptest.ResponseRecorder, out any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

// createAccount returns the ID of a new account.
func (suite *APITestSuite) createAccount(code, name, accountType string) string {
	w := suite.do(http.MethodPost, "/api/v1/accounts", map[string]any{
		"code": code, "name": name, "accountType": accountType,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var acc struct {
		AccountID string `json:"accountID"`
	}
	suite.decode(w, &acc)
	return acc.AccountID
}

type entryBody struct {
	EntryID   string `json:"entryID"`
	Status    string `json:"status"`
	CreatedBy string `json:"createdBy"`
	Lines     []struct {
		LineID    string  `json:"lineID"`
		PartnerID *string `json:"partnerID"`
	} `json:"lines"`
}

// postEntry drafts an entry from lines and posts it, returning the posted entry.
func (suite *APITestSuite) postEntry(date string, lines ...map[string]any) entryBody {
	w := suite.do(http.MethodPost, "/api/v1/entries", map[string]any{
		"postingDate":  date + "T00:00:00Z",
		"documentDate": date + "T00:00:00Z",
		"description":  "test entry",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var entry entryBody
	suite.decode(w, &entry)

	for _, l := range lines {
		w = suite.do(http.MethodPost, "/api/v1/entries/"+entry.EntryID+"/lines", l)
		suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	}

	w = suite.do(http.MethodPost, "/api/v1/entries/"+entry.EntryID+"/post", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &entry)
	return entry
}

func line(accountID, amount, side string) map[string]any {
	return map[string]any{"accountID": accountID, "amount": amount, "transactionType": side}
}

func partnerLine(accountID, amount, side, partner string) map[string]any {
	l := line(accountID, amount, side)
	l["partnerID"] = partner
	return l
}

func (suite *APITestSuite) TestHealthIsPublic() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)
	suite.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (suite *APITestSuite) TestAuthRejections() {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   testUser,
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte(testSecret))
	suite.Require().NoError(err)
	foreign, err := middleware.IssueToken("other-secret", testIssuer, testUser, time.Hour)
	suite.Require().NoError(err)
	wrongIssuer, err := middleware.IssueToken(testSecret, "someone-else", testUser, time.Hour)
	suite.Require().NoError(err)
	noSubject, err := middleware.IssueToken(testSecret, testIssuer, "", time.Hour)
	suite.Require().NoError(err)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Authorization header required"},
		{"not bearer", "Basic abc", "Authorization header format must be Bearer {token}"},
		{"expired", "Bearer " + expired, "Token has expired"},
		{"wrong key", "Bearer " + foreign, "Invalid token"},
		{"wrong issuer", "Bearer " + wrongIssuer, "Invalid token"},
		{"no subject", "Bearer " + noSubject, "Invalid token claims"},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			suite.router.ServeHTTP(w, req)

			suite.Equal(http.StatusUnauthorized, w.Code)
			var body handlers.ErrorResponse
			suite.decode(w, &body)
			suite.Equal(tt.want, body.Error)
		})
	}
}

func (suite *APITestSuite) TestEntryLifecycle() {
	bank := suite.createAccount("1000", "Bank", "ASSET")
	revenue := suite.createAccount("4000", "Sales", "REVENUE")

	entry := suite.postEntry("2024-03-10", line(bank, "250.00", "DEBIT"), line(revenue, "250", "CREDIT"))
	suite.Equal("POSTED", entry.Status)
	suite.Equal(testUser, entry.CreatedBy, "token subject is the acting user")

	w := suite.do(http.MethodGet, "/api/v1/entries/"+entry.EntryID+"/totals", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var totals struct {
		Debits  string `json:"debits"`
		Credits string `json:"credits"`
		Lines   int    `json:"lines"`
	}
	suite.decode(w, &totals)
	suite.Equal("250", totals.Debits)
	suite.Equal(totals.Debits, totals.Credits)
	suite.Equal(2, totals.Lines)

	w = suite.do(http.MethodGet, "/api/v1/reports/trial-balance?asOf=2024-03-31", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var tb struct {
		AsOf     string `json:"asOf"`
		Debit    string `json:"debit"`
		Credit   string `json:"credit"`
		Accounts []any  `json:"accounts"`
	}
	suite.decode(w, &tb)
	suite.Equal("2024-03-31", tb.AsOf)
	suite.Equal("250", tb.Debit)
	suite.Equal("250", tb.Credit)
	suite.Len(tb.Accounts, 2)

	w = suite.do(http.MethodPost, "/api/v1/entries/"+entry.EntryID+"/reverse", map[string]any{"reason": "wrong customer"})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var reversal struct {
		IsReversal bool   `json:"isReversal"`
		ReversalOf string `json:"reversalOf"`
	}
	suite.decode(w, &reversal)
	suite.True(reversal.IsReversal)
	suite.Equal(entry.EntryID, reversal.ReversalOf)

	w = suite.do(http.MethodPost, "/api/v1/entries/"+entry.EntryID+"/cancel", nil)
	suite.Equal(http.StatusConflict, w.Code, "already cancelled by the reversal")
}

func (suite *APITestSuite) TestErrorStatuses() {
	bank := suite.createAccount("1000", "Bank", "ASSET")
	revenue := suite.createAccount("4000", "Sales", "REVENUE")

	w := suite.do(http.MethodPost, "/api/v1/entries", map[string]any{
		"postingDate": "2024-03-01T00:00:00Z", "documentDate": "2024-03-01T00:00:00Z", "description": "one sided",
	})
	suite.Require().Equal(http.StatusCreated, w.Code)
	var draft entryBody
	suite.decode(w, &draft)
	w = suite.do(http.MethodPost, "/api/v1/entries/"+draft.EntryID+"/lines", line(bank, "10", "DEBIT"))
	suite.Require().Equal(http.StatusCreated, w.Code)
	w = suite.do(http.MethodPost, "/api/v1/entries/"+draft.EntryID+"/lines", line(revenue, "9", "CREDIT"))
	suite.Require().Equal(http.StatusCreated, w.Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unbalanced post", http.MethodPost, "/api/v1/entries/" + draft.EntryID + "/post", nil, http.StatusUnprocessableEntity},
		{"unknown entry", http.MethodGet, "/api/v1/entries/missing", nil, http.StatusNotFound},
		{"duplicate account code", http.MethodPost, "/api/v1/accounts", map[string]any{"code": "1000", "name": "Again", "accountType": "ASSET"}, http.StatusConflict},
		{"invalid account type", http.MethodPost, "/api/v1/accounts", map[string]any{"code": "9", "name": "Odd", "accountType": "OTHER"}, http.StatusBadRequest},
		{"malformed json", http.MethodPost, "/api/v1/accounts", "not an object", http.StatusBadRequest},
		{"negative line", http.MethodPost, "/api/v1/entries/" + draft.EntryID + "/lines", line(bank, "-1", "DEBIT"), http.StatusBadRequest},
		{"bad report date", http.MethodGet, "/api/v1/reports/income-statement?from=03/01/2024&to=2024-03-31", nil, http.StatusBadRequest},
		{"inverted period", http.MethodGet, "/api/v1/reports/income-statement?from=2024-03-31&to=2024-03-01", nil, http.StatusBadRequest},
		{"bad pagination", http.MethodGet, "/api/v1/accounts?limit=-5", nil, http.StatusBadRequest},
		{"unknown clearing", http.MethodDelete, "/api/v1/clearings/missing", nil, http.StatusNotFound},
		{"empty clearing selection", http.MethodPost, "/api/v1/clearings", map[string]any{"lineIDs": []string{}}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.do(tt.method, tt.path, tt.body)
			suite.Equal(tt.want, w.Code, w.Body.String())
		})
	}
}

func (suite *APITestSuite) TestClearingFlow() {
	bank := suite.createAccount("1000", "Bank", "ASSET")
	receivable := suite.createAccount("1200", "Trade receivables", "ASSET")
	revenue := suite.createAccount("4000", "Sales", "REVENUE")

	invoice := suite.postEntry("2024-03-01", partnerLine(receivable, "100", "DEBIT", "cust-1"), line(revenue, "100", "CREDIT"))
	receipt := suite.postEntry("2024-03-05", line(bank, "70", "DEBIT"), partnerLine(receivable, "70", "CREDIT", "cust-1"))

	w := suite.do(http.MethodGet, "/api/v1/partners/cust-1/open-items", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var items []struct {
		LineID string `json:"lineID"`
	}
	suite.decode(w, &items)
	suite.Require().Len(items, 2)

	w = suite.do(http.MethodGet, "/api/v1/partners/cust-1/open-items?limit=1", nil)
	suite.decode(w, &items)
	suite.Len(items, 1)

	selection := []string{invoice.Lines[0].LineID, receipt.Lines[1].LineID}
	w = suite.do(http.MethodPost, "/api/v1/clearings", map[string]any{"lineIDs": selection})
	suite.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	var failure handlers.ErrorResponse
	suite.decode(w, &failure)
	suite.Equal("30", failure.Residual)

	settle := suite.postEntry("2024-03-09", line(bank, "30", "DEBIT"), partnerLine(receivable, "30", "CREDIT", "cust-1"))
	selection = append(selection, settle.Lines[1].LineID)
	w = suite.do(http.MethodPost, "/api/v1/clearings", map[string]any{"lineIDs": selection})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var group struct {
		ClearingID string   `json:"clearingID"`
		PartnerID  string   `json:"partnerID"`
		LineIDs    []string `json:"lineIDs"`
	}
	suite.decode(w, &group)
	suite.Equal("cust-1", group.PartnerID)
	suite.ElementsMatch(selection, group.LineIDs)

	w = suite.do(http.MethodGet, "/api/v1/partners/cust-1/open-items", nil)
	suite.decode(w, &items)
	suite.Empty(items)

	w = suite.do(http.MethodGet, "/api/v1/clearings/"+group.ClearingID, nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodDelete, "/api/v1/clearings/"+group.ClearingID, nil)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/partners/cust-1/open-items", nil)
	suite.decode(w, &items)
	suite.Len(items, 3)
}

func (suite *APITestSuite) TestInvoiceAndPaymentFlow() {
	bank := suite.createAccount("1000", "Bank", "ASSET")
	suite.createAccount("1200", "Trade receivables", "ASSET")
	suite.createAccount("2300", "Output VAT", "LIABILITY")
	suite.createAccount("4000", "Sales", "REVENUE")

	w := suite.do(http.MethodPost, "/api/v1/invoices", map[string]any{
		"number":    "INV-001",
		"partnerID": "cust-9",
		"direction": "OUTBOUND",
		"issueDate": "2024-03-01T00:00:00Z",
		"dueDate":   "2024-03-31T00:00:00Z",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var invoice struct {
		InvoiceID   string `json:"invoiceID"`
		Status      string `json:"status"`
		GrossAmount string `json:"grossAmount"`
	}
	suite.decode(w, &invoice)

	w = suite.do(http.MethodPost, "/api/v1/invoices/"+invoice.InvoiceID+"/post", nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code, "no items yet")

	w = suite.do(http.MethodPost, "/api/v1/invoices/"+invoice.InvoiceID+"/items", map[string]any{
		"description": "Consulting", "quantity": "2", "unitPrice": "50", "taxAmount": "20",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	suite.decode(w, &invoice)
	suite.Equal("120", invoice.GrossAmount)

	w = suite.do(http.MethodPost, "/api/v1/invoices/"+invoice.InvoiceID+"/post", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &invoice)
	suite.Equal("POSTED", invoice.Status)

	w = suite.do(http.MethodPost, "/api/v1/payments", map[string]any{
		"partnerID":           "cust-9",
		"invoiceID":           invoice.InvoiceID,
		"settlementAccountID": bank,
		"amount":              "120",
		"paymentDate":         "2024-03-20T00:00:00Z",
		"method":              "BANK_TRANSFER",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var payment struct {
		PaymentID string `json:"paymentID"`
		Direction string `json:"direction"`
		Status    string `json:"status"`
	}
	suite.decode(w, &payment)
	suite.Equal("INCOMING", payment.Direction)

	w = suite.do(http.MethodPost, "/api/v1/payments/"+payment.PaymentID+"/post", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.decode(w, &payment)
	suite.Equal("POSTED", payment.Status)

	w = suite.do(http.MethodGet, "/api/v1/invoices/"+invoice.InvoiceID, nil)
	suite.decode(w, &invoice)
	suite.Equal("PAID", invoice.Status)

	w = suite.do(http.MethodGet, "/api/v1/partners/cust-9/open-items", nil)
	var items []any
	suite.decode(w, &items)
	suite.Empty(items, "a full payment clears the partner lines")

	w = suite.do(http.MethodPost, "/api/v1/invoices/"+invoice.InvoiceID+"/cancel", nil)
	suite.Equal(http.StatusConflict, w.Code)
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.RateLimit = "2-M"
	router := newTestRouter(t, cfg)
	token, err := middleware.IssueToken(testSecret, testIssuer, testUser, time.Hour)
	require.NoError(t, err)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestNewRouter_Misconfiguration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testConfig()
	cfg.JWTSecret = ""
	_, err := handlers.NewRouter(cfg, logger, nil)
	require.ErrorContains(t, err, "JWT_SECRET")

	cfg = testConfig()
	cfg.RateLimit = "lots"
	_, err = handlers.NewRouter(cfg, logger, nil)
	require.ErrorContains(t, err, "rate limit")
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.CORSAllowedOrigins = []string{"https://books.example.com"}
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/accounts", nil)
	req.Header.Set("Origin", "https://books.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "https://books.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
