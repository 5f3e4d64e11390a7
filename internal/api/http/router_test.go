package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobboard/job-board/internal/api/http/handlers"
	"github.com/jobboard/job-board/internal/auth"
	"github.com/jobboard/job-board/internal/cache"
	"github.com/jobboard/job-board/internal/config"
	"github.com/jobboard/job-board/internal/domain"
	"github.com/jobboard/job-board/internal/events"
	"github.com/jobboard/job-board/internal/observability"
	"github.com/jobboard/job-board/internal/repository/memory"
	"github.com/jobboard/job-board/internal/service"
	"github.com/jobboard/job-board/internal/storage"
	"github.com/jobboard/job-board/internal/validation"
	"github.com/jobboard/job-board/internal/worker"
)

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithStorage(t, config.StorageConfig{BasePath: t.TempDir(), BaseURL: "http://files.test"})
}

func newTestServerWithStorage(t *testing.T, storageCfg config.StorageConfig) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := memory.NewStore()
	v := validation.New()
	dispatcher := events.NewInMemoryDispatcher()
	keys := cache.Keys{Prefix: "test"}

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "router-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}, store.Users(), v, logger)
	applications := service.NewApplicationService(service.ApplicationDependencies{
		AuthService:     authService,
		JobRepo:         store.Jobs(),
		ApplicationRepo: store.Applications(),
		Validator:       v,
		Dispatcher:      dispatcher,
		Metrics:         metrics,
		Logger:          logger,
	})
	jobs := service.NewJobService(service.JobDependencies{
		AuthService:     authService,
		JobRepo:         store.Jobs(),
		ApplicationRepo: store.Applications(),
		Validator:       v,
		Dispatcher:      dispatcher,
		Keys:            keys,
		Logger:          logger,
	})
	blobs, err := storage.New(storageCfg)
	require.NoError(t, err)
	worker.Start(dispatcher, cache.Nop{}, keys, service.NewNotificationService(store.Users(), nil, logger), logger)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("job-board", "test", nil, nil, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Jobs:           handlers.NewJobsHandler(jobs),
		Applications:   handlers.NewApplicationsHandler(applications),
		Uploads:        handlers.NewUploadsHandler(service.NewUploadService(blobs, 1<<20, metrics, logger)),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(store.Jobs(), store.Applications(), nil, keys, logger)),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users()),
		UploadsDir:     storageCfg.BasePath,
	})
	return &testServer{app: app, store: store, tokens: authService.TokenManager()}
}

func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/auth/register", "", map[string]any{
		"name": name, "email": email, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		Data struct {
			Auth struct {
				Token string `json:"token"`
			} `json:"auth"`
		} `json:"data"`
	}
	decode(t, resp, &body)
	return body.Data.Auth.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) createJob(t *testing.T, token string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/jobs", token, map[string]any{
		"title": "Platform Engineer", "company": "Acme", "location": "Nairobi", "type": "Full-time", "description": "Infra",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decode(t, resp, &created)
	return created.Data.ID
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func applicationPayload() map[string]any {
	return map[string]any{
		"title":            "Ms",
		"firstName":        "Bea",
		"lastName":         "Wanjiru",
		"levelOfEducation": "Masters",
		"region":           "KE",
		"residenceAddress": "Kiambu",
		"idNumber":         "23456789",
		"phoneNumber":      "0712345678",
		"coverLetter":      "Keen to join.",
		"documents":        []map[string]string{{"name": "cv.pdf", "url": "http://files.test/1-cv.pdf"}},
	}
}

func TestApplyAndStatusFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")
	bob := s.register(t, "Bob", "bob@example.com")
	carol := s.register(t, "Carol", "carol@example.com")

	resp := s.do(t, http.MethodPost, "/jobs", alice, map[string]any{
		"title": "Data Engineer", "company": "Acme", "location": "Nairobi", "type": "Full-time", "description": "Pipelines",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decode(t, resp, &created)
	jobID := created.Data.ID

	resp = s.do(t, http.MethodPost, "/jobs/"+jobID+"/apply", "", applicationPayload())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/jobs/"+jobID+"/apply", bob, applicationPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var app struct {
		Data struct {
			ID        string              `json:"id"`
			Status    string              `json:"status"`
			Documents []map[string]string `json:"documents"`
		} `json:"data"`
	}
	decode(t, resp, &app)
	assert.Equal(t, "PENDING", app.Data.Status)
	assert.Equal(t, []map[string]string{{"name": "cv.pdf", "url": "http://files.test/1-cv.pdf"}}, app.Data.Documents)

	resp = s.do(t, http.MethodPost, "/jobs/"+jobID+"/apply", bob, applicationPayload())
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	statusPath := "/applications/" + app.Data.ID + "/status"
	resp = s.do(t, http.MethodPatch, statusPath, alice, map[string]string{"status": "ACCEPTED", "jobId": jobID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result service.StatusUpdateResult
	decode(t, resp, &result)
	assert.True(t, result.Success)

	resp = s.do(t, http.MethodPatch, statusPath, carol, map[string]string{"status": "REJECTED", "jobId": jobID})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	decode(t, resp, &result)
	assert.Equal(t, service.StatusUpdateResult{Success: false, Message: "Unauthorized to update this application."}, result)

	stored, err := s.store.Applications().GetByID(context.Background(), app.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusAccepted, stored.Status)
}

func TestApplyValidationErrorsAreFieldScoped(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")
	bob := s.register(t, "Bob", "bob@example.com")

	resp := s.do(t, http.MethodPost, "/jobs", alice, map[string]any{
		"title": "QA", "company": "Acme", "location": "Remote", "type": "Contract", "description": "Testing",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decode(t, resp, &created)

	payload := applicationPayload()
	payload["region"] = "US"
	resp = s.do(t, http.MethodPost, "/jobs/"+created.Data.ID+"/apply", bob, payload)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Error struct {
			Code    string              `json:"code"`
			Details map[string][]string `json:"details"`
		} `json:"error"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.Equal(t, []string{"Invalid phone number for the selected region"}, body.Error.Details["phoneNumber"])
}

func TestApplyToUnknownJob(t *testing.T) {
	s := newTestServer(t)
	bob := s.register(t, "Bob", "bob@example.com")

	resp := s.do(t, http.MethodPost, "/jobs/not-a-uuid/apply", bob, applicationPayload())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = s.do(t, http.MethodPost, "/jobs/7f1c1f4e-7f0a-4f55-9a39-1b2c3d4e5f60/apply", bob, applicationPayload())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEmailOnlyTokenProvisionsUserOnApply(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")
	resp := s.do(t, http.MethodPost, "/jobs", alice, map[string]any{
		"title": "Ops", "company": "Acme", "location": "Remote", "type": "Contract", "description": "On call",
	})
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decode(t, resp, &created)

	token, _, err := s.tokens.GenerateToken(domain.Identity{Email: "social@example.com", Name: "Social User"})
	require.NoError(t, err)

	resp = s.do(t, http.MethodPost, "/jobs/"+created.Data.ID+"/apply", token, applicationPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	user, err := s.store.Users().GetByEmail(context.Background(), "social@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Social User", user.Name)
}

func TestUploadReturnsReference(t *testing.T) {
	s := newTestServer(t)
	bob := s.register(t, "Bob", "bob@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "my resume.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bob)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ref service.UploadResult
	decode(t, resp, &ref)
	assert.Equal(t, "my resume.pdf", ref.Name)
	assert.Regexp(t, `^http://files\.test/\d+-my_resume\.pdf$`, ref.URL)

	req = httptest.NewRequest(http.MethodPost, "/uploads", nil)
	req.Header.Set("Authorization", "Bearer "+bob)
	resp, err = s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadedDocumentCanBeAttachedAndFetched(t *testing.T) {
	s := newTestServerWithStorage(t, config.StorageConfig{BasePath: t.TempDir()})
	alice := s.register(t, "Alice", "alice@example.com")
	bob := s.register(t, "Bob", "bob@example.com")
	jobID := s.createJob(t, alice)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "cv.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bob)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ref service.UploadResult
	decode(t, resp, &ref)
	assert.Regexp(t, `^http://localhost:8080/uploads/\d+-cv\.pdf$`, ref.URL)

	payload := applicationPayload()
	payload["documents"] = []service.UploadResult{ref}
	resp = s.do(t, http.MethodPost, "/jobs/"+jobID+"/apply", bob, payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	parsed, err := url.Parse(ref.URL)
	require.NoError(t, err)
	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, parsed.Path, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(raw))
}

func TestStatusUpdateMalformedBodyKeepsResultShape(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "Alice", "alice@example.com")

	req := httptest.NewRequest(http.MethodPatch, "/applications/"+uuid.NewString()+"/status", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+alice)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, map[string]any{"success": false, "message": "invalid payload"}, body)
}

func TestAdminProfileRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	bob := s.register(t, "Bob", "bob@example.com")

	resp := s.do(t, http.MethodPut, "/admin/profile", bob, map[string]string{"name": "Boss"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDashboardAndHealth(t *testing.T) {
	s := newTestServer(t)
	bob := s.register(t, "Bob", "bob@example.com")

	resp := s.do(t, http.MethodGet, "/dashboard", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dash struct {
		Data struct {
			PostedJobs   []any `json:"postedJobs"`
			Applications []any `json:"applications"`
		} `json:"data"`
	}
	decode(t, resp, &dash)
	assert.NotNil(t, dash.Data.PostedJobs)
	assert.NotNil(t, dash.Data.Applications)

	resp = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var metrics struct {
		Data observability.MetricsSnapshot `json:"data"`
	}
	decode(t, resp, &metrics)
	assert.NotEmpty(t, metrics.Data.Requests)
}
