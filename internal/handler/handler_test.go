package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tuition-credits/internal/catalog"
	"tuition-credits/internal/i18n"
	"tuition-credits/internal/ledger"
	"tuition-credits/internal/notify"
	"tuition-credits/internal/pkg/lock"
	"tuition-credits/internal/repository"
	"tuition-credits/internal/service"
)

type testAPI struct {
	router http.Handler
	svc    *service.Service
	hub    *notify.Hub
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	kv := repository.NewMemoryStore()
	hub := notify.NewHub()

	engine := ledger.NewEngine(repository.NewAccountRepository(kv), lock.NewUserLock(), ledger.Config{
		LockTimeout: time.Second,
		Publisher:   hub,
	})
	translator, err := i18n.New("en")
	require.NoError(t, err)

	svc := service.NewService(engine, catalog.New(repository.NewPackageRepository(kv), nil), translator, false)
	_, err = svc.InitializePackages(context.Background())
	require.NoError(t, err)

	h := NewHandler(svc, translator, hub)
	r := chi.NewRouter()
	r.Route("/v1", func(r chi.Router) {
		h.Routes(r)
		r.Route("/admin", h.AdminRoutes)
	})
	return &testAPI{router: r, svc: svc, hub: hub}
}

func (api *testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorType(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, w.Body.String())
	return e["type"].(string)
}

func TestListPackages(t *testing.T) {
	api := setupAPI(t)

	w := api.do(t, http.MethodGet, "/v1/packages?role=teacher", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pkgs := decode(t, w)["packages"].([]any)
	assert.Len(t, pkgs, 4)

	w = api.do(t, http.MethodGet, "/v1/packages/teacher-popular?lang=bn", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "জনপ্রিয়", body["displayName"])
	assert.Equal(t, "199", body["price"])

	w = api.do(t, http.MethodGet, "/v1/packages/teacher-popular", nil, "Accept-Language", "bn-BD,bn;q=0.9")
	assert.Equal(t, "জনপ্রিয়", decode(t, w)["displayName"])

	w = api.do(t, http.MethodGet, "/v1/packages?role=parent", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/v1/packages/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/v1/packages/init", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["initialized"])
}

func TestAccountLifecycle(t *testing.T) {
	api := setupAPI(t)

	w := api.do(t, http.MethodPost, "/v1/accounts", map[string]string{"userId": "t1", "userType": "teacher"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(50), body["currentBalance"])
	txs := body["transactions"].([]any)
	require.Len(t, txs, 1)
	assert.Equal(t, "Signup bonus", txs[0].(map[string]any)["description"])

	w = api.do(t, http.MethodGet, "/v1/accounts/t1/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(50), decode(t, w)["balance"])

	w = api.do(t, http.MethodGet, "/v1/accounts/t1/sufficient?amount=60", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["sufficient"])

	w = api.do(t, http.MethodGet, "/v1/accounts/t1/sufficient?amount=lots", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/v1/accounts/ghost/balance", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/v1/accounts", `{"userId":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/v1/accounts", map[string]string{"userId": "x", "userType": "parent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyJob_ThenInsufficient(t *testing.T) {
	api := setupAPI(t)

	w := api.do(t, http.MethodPost, "/v1/actions/apply-job", map[string]string{"teacherId": "t1", "jobId": "job-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "spent", body["type"])
	assert.Equal(t, float64(-10), body["amount"])
	assert.Equal(t, float64(40), body["balance"])
	assert.Equal(t, "Applied to job job-1", body["description"])

	w = api.do(t, http.MethodPost, "/v1/admin/accounts/t1/balance", map[string]any{"balance": 3, "note": "test"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["changed"])

	w = api.do(t, http.MethodPost, "/v1/actions/apply-job", map[string]string{"teacherId": "t1", "jobId": "job-2"})
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	e := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "insufficient_credits", e["type"])
	assert.Equal(t, float64(10), e["required"])
	assert.Equal(t, float64(3), e["available"])
}

func TestActionErrors(t *testing.T) {
	api := setupAPI(t)

	w := api.do(t, http.MethodPost, "/v1/actions/contact", map[string]string{"fromId": "ghost", "toId": "t1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/v1/accounts/t1/purchases", map[string]string{"packageId": "teacher-free-trial"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/v1/actions/milestones", map[string]any{"userId": "t1", "count": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/v1/actions/rewards", map[string]any{"userId": "t1", "action": "apply_job"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodPost, "/v1/admin/accounts/t1/balance", map[string]any{"note": "no balance"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoleRestrictedActions(t *testing.T) {
	api := setupAPI(t)
	api.do(t, http.MethodPost, "/v1/accounts", map[string]string{"userId": "g1", "userType": "guardian"})
	api.do(t, http.MethodPost, "/v1/accounts", map[string]string{"userId": "t1", "userType": "teacher"})

	w := api.do(t, http.MethodPost, "/v1/actions/apply-job", map[string]string{"teacherId": "g1", "jobId": "job-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decode(t, w)["error"].(map[string]any)["type"])

	w = api.do(t, http.MethodPost, "/v1/actions/post-job", map[string]string{"guardianId": "t1", "jobId": "job-1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodGet, "/v1/accounts/g1/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(100), decode(t, w)["balance"])
}

func TestRewardsAndMilestones(t *testing.T) {
	api := setupAPI(t)
	api.do(t, http.MethodPost, "/v1/accounts", map[string]string{"userId": "t1", "userType": "teacher"})

	w := api.do(t, http.MethodPost, "/v1/actions/rewards", map[string]any{"userId": "t1", "action": "verify_email"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodPost, "/v1/actions/rewards", map[string]any{"userId": "t1", "action": "verify_email"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", errorType(t, w))

	w = api.do(t, http.MethodPost, "/v1/actions/milestones", map[string]any{"userId": "t1", "count": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Milestone reward: first tuition confirmed", decode(t, w)["description"])

	w = api.do(t, http.MethodGet, "/v1/accounts/t1/balance", nil)
	assert.Equal(t, float64(75), decode(t, w)["balance"])
}

func TestVideoMeeting_AllOrNothing(t *testing.T) {
	api := setupAPI(t)
	api.do(t, http.MethodPost, "/v1/accounts", map[string]string{"userId": "t1", "userType": "teacher"})
	api.do(t, http.MethodPost, "/v1/accounts", map[string]string{"userId": "g1", "userType": "guardian"})
	api.do(t, http.MethodPost, "/v1/admin/accounts/g1/balance", map[string]any{"balance": 15})

	w := api.do(t, http.MethodPost, "/v1/actions/video-meeting", map[string]string{"userId1": "t1", "userId2": "g1"})
	require.Equal(t, http.StatusPaymentRequired, w.Code)

	w = api.do(t, http.MethodGet, "/v1/accounts/t1/balance", nil)
	assert.Equal(t, float64(50), decode(t, w)["balance"])

	api.do(t, http.MethodPost, "/v1/admin/accounts/g1/balance", map[string]any{"balance": 20})
	w = api.do(t, http.MethodPost, "/v1/actions/video-meeting", map[string]string{"userId1": "t1", "userId2": "g1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, decode(t, w)["transactions"].([]any), 2)
}

func TestHistory(t *testing.T) {
	api := setupAPI(t)
	api.do(t, http.MethodPost, "/v1/actions/post-job", map[string]string{"guardianId": "g1", "jobId": "job-9"})

	w := api.do(t, http.MethodGet, "/v1/accounts/g1/history?lang=bn", nil)
	require.Equal(t, http.StatusOK, w.Code)
	records := decode(t, w)["records"].([]any)
	require.Len(t, records, 2)
	assert.Equal(t, "সাইনআপ বোনাস", records[0].(map[string]any)["description"])

	w = api.do(t, http.MethodGet, "/v1/accounts/g1/history?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,type,amount,balance,description", lines[0])
	assert.Contains(t, lines[2], "Posted job job-9")

	w = api.do(t, http.MethodGet, "/v1/accounts/ghost/history", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvents_StreamsUserUpdates(t *testing.T) {
	api := setupAPI(t)
	srv := httptest.NewServer(api.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events?user=t1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return api.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = api.svc.GetOrCreateAccount(context.Background(), "g1", "guardian")
	require.NoError(t, err)
	_, err = api.svc.ApplyToJob(context.Background(), "t1", "job-1")
	require.NoError(t, err)

	var events []notify.Event
	scanner := bufio.NewScanner(resp.Body)
	for len(events) < 2 && scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var ev notify.Event
			require.NoError(t, json.Unmarshal([]byte(data), &ev))
			events = append(events, ev)
		}
	}
	require.Len(t, events, 2)

	// signup bonus then the application; g1 is filtered out
	assert.Equal(t, "t1", events[0].UserID)
	assert.Equal(t, int64(50), events[0].Balance)
	assert.Equal(t, int64(40), events[1].Balance)
	assert.Equal(t, notify.EventCreditsUpdated, events[1].Type)
}
