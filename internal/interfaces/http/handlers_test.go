package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/ai-expense-auditor/internal/ai"
	"github.com/garyjia/ai-expense-auditor/internal/application/port"
	"github.com/garyjia/ai-expense-auditor/internal/application/service"
	"github.com/garyjia/ai-expense-auditor/internal/domain/entity"
	"github.com/garyjia/ai-expense-auditor/internal/export"
	"github.com/garyjia/ai-expense-auditor/internal/policy"
	"github.com/garyjia/ai-expense-auditor/internal/receipt"
	"github.com/garyjia/ai-expense-auditor/internal/storage"
	"github.com/garyjia/ai-expense-auditor/internal/store"
)

const highRiskReply = `{"riskScore":"High","isFlagged":true,"summary":"Alcohol on a client dinner","policyViolations":[{"policy":"ALCOHOL","details":"Wine listed"}],"anomaliesDetected":[],"suspiciousLanguage":{"detected":false,"notes":"None"},"recommendedAction":"Reject the alcohol portion."}`

// scripted answers chat completions in order
type scripted struct {
	mu      sync.Mutex
	answers []answer
}

type answer struct {
	content string
	err     error
}

func (s *scripted) push(a ...answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, a...)
}

func (s *scripted) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.answers) == 0 {
		return openai.ChatCompletionResponse{}, nil
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	if a.err != nil {
		return openai.ChatCompletionResponse{}, a.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: a.content}},
	}}, nil
}

type memKV struct {
	mu    sync.Mutex
	slots map[string][]byte
}

func (m *memKV) Get(_ context.Context, name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.slots[name]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[name] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, name)
	return nil
}

func newTestServer(t *testing.T) (*Server, *scripted) {
	t.Helper()
	logger := zap.NewNop()
	model := &scripted{}
	catalog := policy.Default()
	prompts := ai.DefaultPrompts()

	reports := store.New(&memKV{slots: map[string][]byte{}}, logger)
	reports.Load(context.Background())

	files := storage.NewLocalFileStorage(t.TempDir(), logger)
	exporters := map[service.ReportFormat]port.ReportExporter{
		service.FormatPDF:  export.NewPDFExporter(export.PDFOptions{CompanyName: "ACME"}, files, logger),
		service.FormatXLSX: export.NewXLSXExporter(files, logger),
	}

	services := Services{
		Expenses: service.NewExpenseService(
			ai.NewAuditor(model, prompts, ai.ModelOptions{Model: "gpt-4o"}, logger),
			receipt.NewLoader(5<<20, logger),
			catalog,
			reports,
			logger,
		),
		Reports:  service.NewReportService(reports, exporters, logger),
		Chat:     service.NewChatService(ai.NewAssistant(model, prompts, catalog.Policies(), ai.ModelOptions{Model: "gpt-4o"}, logger), logger),
		Themes:   reports,
		Policies: catalog,
	}
	return NewServer(DefaultServerConfig(), services, logger), model
}

func do(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return serve(t, s, req)
}

func serve(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func expenseBody() map[string]any {
	return map[string]any{
		"employeeName": "A. Lee",
		"date":         "2024-03-01",
		"amount":       82,
		"currency":     "USD",
		"vendor":       "City Bistro",
		"category":     "Meals",
		"description":  "client dinner with wine",
	}
}

func decode[T any](t *testing.T, data any) T {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealthAndCatalog(t *testing.T) {
	s, _ := newTestServer(t)

	w, resp := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)

	_, resp = do(t, s, http.MethodGet, "/api/categories", nil)
	assert.Len(t, decode[[]string](t, resp.Data), len(entity.Categories))

	_, resp = do(t, s, http.MethodGet, "/api/policies", nil)
	policies := decode[[]entity.CompanyPolicy](t, resp.Data)
	require.NotEmpty(t, policies)
	assert.Equal(t, "MEAL_LIMIT", policies[0].ID)
}

func TestSubmitExpenseJSON(t *testing.T) {
	s, model := newTestServer(t)
	model.push(answer{content: highRiskReply})

	w, resp := do(t, s, http.MethodPost, "/api/expenses", expenseBody())
	require.Equal(t, http.StatusCreated, w.Code)
	entry := decode[entity.ExpenseEntry](t, resp.Data)
	require.NotNil(t, entry.Analysis)
	assert.Equal(t, entity.RiskHigh, entry.Analysis.RiskScore)
	assert.Equal(t, "Reject the alcohol portion.", entry.Analysis.RecommendedAction)

	_, resp = do(t, s, http.MethodGet, "/api/expenses", nil)
	assert.Len(t, decode[[]entity.ExpenseEntry](t, resp.Data), 1)

	w, resp = do(t, s, http.MethodGet, "/api/expenses/"+entry.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entry.ID, decode[entity.ExpenseEntry](t, resp.Data).ID)

	w, _ = do(t, s, http.MethodGet, "/api/expenses/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitExpenseMultipartWithReceipt(t *testing.T) {
	s, model := newTestServer(t)
	model.push(answer{content: highRiskReply})

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"employeeName": "A. Lee",
		"date":         "2024-03-01",
		"amount":       "82",
		"vendor":       "City Bistro",
		"category":     "Meals",
		"description":  "client dinner",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("receipt", "dinner.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/expenses", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, resp := serve(t, s, req)

	require.Equal(t, http.StatusCreated, w.Code)
	entry := decode[entity.ExpenseEntry](t, resp.Data)
	assert.Equal(t, "dinner.png", entry.ReceiptImageName)
	assert.True(t, strings.HasPrefix(entry.ReceiptImageDataURL, "data:image/png;base64,"))
	assert.Equal(t, "USD", entry.Currency)
}

func TestSubmitExpenseErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]any)
		answer   *answer
		status   int
		message  string
		recorded bool
	}{
		{
			name:    "missing fields",
			mutate:  func(b map[string]any) { delete(b, "vendor") },
			status:  http.StatusBadRequest,
			message: "Please fill in all required fields.",
		},
		{
			name:    "negative amount",
			mutate:  func(b map[string]any) { b["amount"] = -5 },
			status:  http.StatusBadRequest,
			message: "Please enter a valid positive amount.",
		},
		{
			name:    "amount not a number",
			mutate:  func(b map[string]any) { b["amount"] = "lots" },
			status:  http.StatusBadRequest,
			message: "Please enter a valid positive amount.",
		},
		{
			name:    "wrong type on another field",
			mutate:  func(b map[string]any) { b["employeeName"] = 42 },
			status:  http.StatusBadRequest,
			message: "Please check the expense form and try again.",
		},
		{
			name:     "quota",
			mutate:   func(map[string]any) {},
			answer:   &answer{err: &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "rate limited"}},
			status:   http.StatusTooManyRequests,
			message:  "API request limit reached. Please try again later or check your API quota. (Error 429)",
			recorded: true,
		},
		{
			name:     "bad key",
			mutate:   func(map[string]any) {},
			answer:   &answer{err: &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "nope"}},
			status:   http.StatusBadGateway,
			message:  "Invalid API Key. Please check your OPENAI_API_KEY configuration.",
			recorded: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, model := newTestServer(t)
			if tt.answer != nil {
				model.push(*tt.answer)
			}
			body := expenseBody()
			tt.mutate(body)

			w, resp := do(t, s, http.MethodPost, "/api/expenses", body)
			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Error)

			_, list := do(t, s, http.MethodGet, "/api/expenses", nil)
			entries := decode[[]entity.ExpenseEntry](t, list.Data)
			if !tt.recorded {
				assert.Empty(t, entries)
				return
			}
			require.Len(t, entries, 1)
			assert.Equal(t, ai.FallbackResult(), *entries[0].Analysis)
			assert.Equal(t, entries[0].ID, decode[entity.ExpenseEntry](t, resp.Data).ID)
		})
	}
}

func TestSummaryAndReports(t *testing.T) {
	s, model := newTestServer(t)

	w, _ := do(t, s, http.MethodGet, "/api/reports/pdf", nil)
	assert.Equal(t, http.StatusNoContent, w.Code, "empty history exports nothing")

	model.push(answer{content: highRiskReply})
	w, _ = do(t, s, http.MethodPost, "/api/expenses", expenseBody())
	require.Equal(t, http.StatusCreated, w.Code)

	_, resp := do(t, s, http.MethodGet, "/api/summary", nil)
	summary := decode[SummaryResponse](t, resp.Data)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, 1, summary.High)
	assert.Equal(t, "$82.00", summary.Rows[1].Value)
	assert.False(t, summary.MixedCurrencies)
	assert.Empty(t, summary.Note, "single-currency history carries no note")

	w, _ = do(t, s, http.MethodGet, "/api/reports/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w, _ = do(t, s, http.MethodGet, "/api/reports/xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	w, _ = do(t, s, http.MethodGet, "/api/reports/doc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, s, http.MethodDelete, "/api/expenses", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	_, resp = do(t, s, http.MethodGet, "/api/expenses", nil)
	assert.Empty(t, decode[[]entity.ExpenseEntry](t, resp.Data))
}

func TestTheme(t *testing.T) {
	s, _ := newTestServer(t)

	_, resp := do(t, s, http.MethodGet, "/api/theme", nil)
	assert.Equal(t, "light", decode[map[string]string](t, resp.Data)["theme"])

	w, resp := do(t, s, http.MethodPut, "/api/theme", map[string]string{"theme": "dark"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dark", decode[map[string]string](t, resp.Data)["theme"])

	w, _ = do(t, s, http.MethodPut, "/api/theme", map[string]string{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, resp = do(t, s, http.MethodPost, "/api/theme/toggle", nil)
	assert.Equal(t, "light", decode[map[string]string](t, resp.Data)["theme"])
}

func TestChat(t *testing.T) {
	s, model := newTestServer(t)

	_, resp := do(t, s, http.MethodPost, "/api/chat/session", nil)
	greeting := decode[entity.ChatMessage](t, resp.Data)
	assert.Equal(t, entity.SenderAssistant, greeting.Sender)
	assert.Contains(t, greeting.Text, "Expense Buddy")

	model.push(answer{content: "Meals are capped at $75 per person."})
	w, resp := do(t, s, http.MethodPost, "/api/chat/messages", MessageRequest{Text: "What is the meal limit?"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Meals are capped at $75 per person.", decode[entity.ChatMessage](t, resp.Data).Text)

	w, _ = do(t, s, http.MethodPost, "/api/chat/messages", MessageRequest{Text: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	model.push(answer{content: ""})
	w, resp = do(t, s, http.MethodPost, "/api/chat/messages", MessageRequest{Text: "And travel?"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, resp.Success)
	failed := decode[entity.ChatMessage](t, resp.Data)
	assert.True(t, failed.Error)
	assert.True(t, strings.HasPrefix(failed.Text, "Sorry, I encountered an error:"))

	_, resp = do(t, s, http.MethodGet, "/api/chat/messages", nil)
	assert.Len(t, decode[[]entity.ChatMessage](t, resp.Data), 5)

	_, resp = do(t, s, http.MethodGet, "/api/status", nil)
	assert.Equal(t, StatusResponse{}, decode[StatusResponse](t, resp.Data))

	do(t, s, http.MethodDelete, "/api/chat/session", nil)
	_, resp = do(t, s, http.MethodGet, "/api/chat/messages", nil)
	assert.Empty(t, decode[[]entity.ChatMessage](t, resp.Data))
}
