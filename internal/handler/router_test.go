package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/assessment-api/internal/domain/entity"
	"github.com/yourusername/assessment-api/internal/middleware"
	"github.com/yourusername/assessment-api/internal/repository/jsonfile"
	"github.com/yourusername/assessment-api/internal/service"
	"github.com/yourusername/assessment-api/internal/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv - роутер поверх настоящего файлового хранилища во временном каталоге
type testEnv struct {
	router *gin.Engine
	store  *jsonfile.Store
}

type envOption func(deps *RouterDeps)

func withDebug() envOption {
	return func(deps *RouterDeps) { deps.Debug = true }
}

func withLiveFeed(t *testing.T) envOption {
	return func(deps *RouterDeps) {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		hub := websocket.NewHub()
		go hub.Run(ctx)
		deps.WS = NewWSHandler(hub, websocket.NewManager(hub), []string{"*"}, 16)
	}
}

func withLoginLimit(t *testing.T, max int) envOption {
	return func(deps *RouterDeps) {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		deps.Limiter = middleware.NewMemoryRateLimiter(ctx, time.Minute)
		deps.LoginRateLimit = middleware.LoginRateLimitConfig(max, time.Minute)
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	store := jsonfile.NewStore(t.TempDir(), jsonfile.Options{WriteRetries: 1, RetryInitialInterval: time.Millisecond})
	require.NoError(t, store.Questions.Write([]entity.Question{
		{ID: entity.NumericID(1), Question: "2+2?", Options: []string{"3", "4"}},
		{ID: entity.StringID("q2"), Question: "Capital of France?", Options: []string{"Paris", "=Rome"}},
	}))

	userService := service.NewUserService(jsonfile.NewUserRepo(store.Users), nil)
	questionService := service.NewQuestionService(jsonfile.NewQuestionRepo(store.Questions), nil, 0)
	submissionService := service.NewSubmissionService(jsonfile.NewSubmissionRepo(store.Submissions), nil, nil)

	deps := RouterDeps{
		Auth:       NewAuthHandler(userService),
		Assessment: NewAssessmentHandler(questionService, submissionService),
		Admin:      NewAdminHandler(userService, submissionService, questionService),
		Identity:   userService,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testEnv{router: NewRouter(deps), store: store}
}

func (e *testEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

func TestLogin_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		body      interface{}
		wantError string
	}{
		{"пустое тело", nil, msgNameEmailRequired},
		{"некорректный JSON", "{", msgNameEmailRequired},
		{"нет email", map[string]string{"name": "Alice"}, msgNameEmailRequired},
		{"нет имени", map[string]string{"email": "a@x.com"}, msgNameEmailRequired},
		{"имя из пробелов", map[string]string{"name": "  ", "email": "a@x.com"}, msgNameEmailRequired},
		{"некорректный email", map[string]string{"name": "Alice", "email": "alice"}, msgInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/login", tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantError, parseJSONResponse(t, w)["error"])
		})
	}

	users, err := env.store.Users.Read()
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLogin_UpsertsByEmail(t *testing.T) {
	// Arrange
	env := newTestEnv(t)

	// Act
	first := env.do(http.MethodPost, "/api/login", map[string]string{"name": "Alice", "email": "a@x.com"}, nil)
	second := env.do(http.MethodPost, "/api/login", map[string]string{"name": "Alicia", "email": " a@x.com "}, nil)

	// Assert
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "Login recorded", parseJSONResponse(t, second)["message"])

	users, err := env.store.Users.Read()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Alicia", users[0].Name)
	assert.Equal(t, "a@x.com", users[0].Email)
}

func TestLogin_UnreadableUsersFileFails(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.store.Users.Path(), []byte("{broken"), 0o644))

	w := env.do(http.MethodPost, "/api/login", map[string]string{"name": "Alice", "email": "a@x.com"}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	data, err := os.ReadFile(env.store.Users.Path())
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data), "нечитаемый файл не должен перезаписываться")
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, withLoginLimit(t, 2))
	body := map[string]string{"name": "Alice", "email": "a@x.com"}

	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/login", body, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/login", body, nil).Code)

	w := env.do(http.MethodPost, "/api/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", parseJSONResponse(t, w)["error_type"])
}

func TestGetQuestions_Identity(t *testing.T) {
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/login", map[string]string{"name": "Alice", "email": "a@x.com"}, nil).Code)
	before, err := os.ReadFile(env.store.Questions.Path())
	require.NoError(t, err)

	t.Run("без заголовка", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/questions", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Email header (x-user-email) required", parseJSONResponse(t, w)["error"])
	})

	t.Run("неизвестный пользователь", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/questions", nil, map[string]string{"x-user-email": "unknown@x.com"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "User not logged in", parseJSONResponse(t, w)["error"])

		after, err := os.ReadFile(env.store.Questions.Path())
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("известный пользователь", func(t *testing.T) {
		w := env.do(http.MethodGet, "/api/questions", nil, map[string]string{"x-user-email": "a@x.com"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t,
			`[{"id":1,"question":"2+2?","options":["3","4"]},{"id":"q2","question":"Capital of France?","options":["Paris","=Rome"]}]`,
			w.Body.String())
	})
}

func TestSubmit(t *testing.T) {
	env := newTestEnv(t)

	t.Run("нет ответов", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/submit", map[string]interface{}{"user": "a@x.com"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, msgUserAnswersRequired, parseJSONResponse(t, w)["error"])
	})

	t.Run("answers = null", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/submit", `{"user":"a@x.com","answers":null}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("нет пользователя", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/submit", `{"answers":{"1":"4"}}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ответ не строка", func(t *testing.T) {
		for _, body := range []string{
			`{"user":"a@x.com","answers":{"1":5}}`,
			`{"user":"a@x.com","answers":{"1":"4","q2":["a"]}}`,
			`{"user":"a@x.com","answers":"4"}`,
		} {
			w := env.do(http.MethodPost, "/api/submit", body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.Equal(t, msgAnswersNotStrings, parseJSONResponse(t, w)["error"], body)
		}

		submissions, err := env.store.Submissions.Read()
		require.NoError(t, err)
		assert.Empty(t, submissions)
	})

	t.Run("user не строка", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/submit", `{"user":5,"answers":{"1":"4"}}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, msgUserAnswersRequired, parseJSONResponse(t, w)["error"])
	})

	t.Run("полный набор ответов", func(t *testing.T) {
		w := env.do(http.MethodPost, "/api/submit", `{"user":"a@x.com","answers":{"1":"4","q2":null}}`, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Submission saved", parseJSONResponse(t, w)["message"])

		submissions, err := env.store.Submissions.Read()
		require.NoError(t, err)
		require.Len(t, submissions, 1)
		assert.Equal(t, "a@x.com", submissions[0].User)
		require.Len(t, submissions[0].Answers, 2)
		assert.Equal(t, "4", *submissions[0].Answers["1"])
		assert.Nil(t, submissions[0].Answers["q2"])
		assert.False(t, submissions[0].SubmittedAt.IsZero())
	})
}

func TestAdminLists(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPost, "/api/login", map[string]string{"name": "Alice", "email": "a@x.com"}, nil)
	env.do(http.MethodPost, "/api/submit", `{"user":"a@x.com","answers":{"1":"4","q2":null}}`, nil)

	users := env.do(http.MethodGet, "/api/users", nil, nil)
	require.Equal(t, http.StatusOK, users.Code)
	var gotUsers []entity.User
	require.NoError(t, json.Unmarshal(users.Body.Bytes(), &gotUsers))
	assert.Len(t, gotUsers, 1)

	submissions := env.do(http.MethodGet, "/api/submissions", nil, nil)
	require.Equal(t, http.StatusOK, submissions.Code)
	var gotSubmissions []entity.Submission
	require.NoError(t, json.Unmarshal(submissions.Body.Bytes(), &gotSubmissions))
	assert.Len(t, gotSubmissions, 1)
}

func TestAdminLists_DegradeToEmptyOnCorruptFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.store.Users.Path(), []byte("not json"), 0o644))
	require.NoError(t, os.WriteFile(env.store.Submissions.Path(), []byte("not json"), 0o644))

	for _, path := range []string{"/api/users", "/api/submissions"} {
		w := env.do(http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, "[]", w.Body.String(), path)
	}
}

func TestDebugUsers_OnlyInDebugMode(t *testing.T) {
	release := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, release.do(http.MethodGet, "/api/debug-users", nil, nil).Code)

	debug := newTestEnv(t, withDebug())
	debug.do(http.MethodPost, "/api/login", map[string]string{"name": "Alice", "email": "a@x.com"}, nil)
	w := debug.do(http.MethodGet, "/api/debug-users", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), parseJSONResponse(t, w)["totalUsers"])
}

func TestDebugWS_Metrics(t *testing.T) {
	release := newTestEnv(t, withLiveFeed(t))
	assert.Equal(t, http.StatusNotFound, release.do(http.MethodGet, "/api/debug-ws", nil, nil).Code)

	debug := newTestEnv(t, withDebug(), withLiveFeed(t))
	w := debug.do(http.MethodGet, "/api/debug-ws", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := parseJSONResponse(t, w)
	assert.Equal(t, float64(0), resp["active_connections"])
	assert.Equal(t, float64(0), resp["total_connections"])
	assert.Contains(t, resp, "messages_sent")
	assert.Contains(t, resp, "uptime_seconds")
}

func TestExportSubmissions_CSV(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPost, "/api/submit", `{"user":"+a@x.com","answers":{"1":"4","q2":null}}`, nil)

	w := env.do(http.MethodGet, "/api/submissions/export?format=csv", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"), "CSV должен начинаться с BOM")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(body, "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,User,Submitted At,Answered,Skipped,Q 1,Q q2", lines[0])
	assert.Contains(t, lines[1], ",'+a@x.com,")
	assert.True(t, strings.HasSuffix(lines[1], ",1,1,4,"))
}

func TestExportSubmissions_XLSX(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPost, "/api/submit", `{"user":"a@x.com","answers":{"1":"4","q2":"=Rome"}}`, nil)

	w := env.do(http.MethodGet, "/api/submissions/export?format=xlsx", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Submissions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ID", "User", "Submitted At", "Answered", "Skipped", "Q 1", "Q q2"}, rows[0])
	assert.Equal(t, "a@x.com", rows[1][1])
	assert.Equal(t, "'=Rome", rows[1][6])
}

func TestExportSubmissions_UnknownFormat(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/api/submissions/export?format=pdf", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}
