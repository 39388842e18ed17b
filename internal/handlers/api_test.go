package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/taskflow-api/internal/auth"
	"github.com/yukikurage/taskflow-api/internal/logger"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/notify"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/testdb"
	"gorm.io/gorm"
)

const testSecret = "test-secret-key-that-is-long-enough-1234"

type recordingSink struct {
	mu       sync.Mutex
	triggers []notify.Trigger
	err      error
}

func (s *recordingSink) Enqueue(_ context.Context, t notify.Trigger) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, t)
	return nil
}

func (s *recordingSink) recorded() []notify.Trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Trigger(nil), s.triggers...)
}

type stubGenerator struct {
	tasks []services.GeneratedTask
}

func (g stubGenerator) GenerateTasksFromText(context.Context, string) ([]services.GeneratedTask, error) {
	return g.tasks, nil
}

// APITestSuite drives the full router against an in-memory database.
type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	sink   *recordingSink
	ai     services.TaskGenerator
	router *gin.Engine

	alice      *models.User
	bob        *models.User
	aliceToken string
	bobToken   string
}

func (suite *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.db = testdb.New(suite.T())
	suite.sink = &recordingSink{}
	suite.ai = nil
	suite.buildRouter()

	suite.alice = testdb.CreateUser(suite.T(), suite.db, "alice@example.com")
	suite.bob = testdb.CreateUser(suite.T(), suite.db, "bob@example.com")
	suite.aliceToken = suite.issueToken(suite.alice.ID)
	suite.bobToken = suite.issueToken(suite.bob.ID)
}

func (suite *APITestSuite) buildRouter() {
	log := logger.Discard()
	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	suite.Require().NoError(err)

	users := repository.NewUserRepository(suite.db)
	projects := repository.NewProjectRepository(suite.db)
	tasks := repository.NewTaskRepository(suite.db)

	suite.router = NewRouter(RouterConfig{
		AppName:        "taskflow-test",
		Log:            log,
		SessionStore:   cookie.NewStore([]byte(testSecret)),
		AuthService:    services.NewAuthService(users, tokens, log),
		ProjectService: services.NewProjectService(projects, tasks),
		TaskService:    services.NewTaskService(tasks, projects, users, suite.sink, suite.ai, log),
	})
}

func (suite *APITestSuite) issueToken(userID uint64) string {
	tokens, err := auth.NewTokenService(testSecret, time.Hour)
	suite.Require().NoError(err)
	token, err := tokens.Issue(userID)
	suite.Require().NoError(err)
	return token
}

// request sends a JSON request; body may be nil, a string or any JSON-encodable value.
func (suite *APITestSuite) request(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APITestSuite) decode(w *httptest.ResponseRecorder, out any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (suite *APITestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code string `json:"code"`
	}
	suite.decode(w, &body)
	return body.Code
}

func (suite *APITestSuite) reloadTask(id uint64) models.Task {
	var task models.Task
	suite.Require().NoError(suite.db.First(&task, id).Error)
	return task
}

var errBrokerDown = errors.New("broker down")
