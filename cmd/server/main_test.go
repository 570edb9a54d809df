package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edulibrary/internal/assistant"
	"edulibrary/internal/catalog"
	"edulibrary/internal/domain"
	"edulibrary/internal/intent"
	"edulibrary/internal/lending"
	"edulibrary/internal/retrieval"
)

const usersFixture = `user_id,name,role,department,preferred_language,borrowed_books,borrow_start,borrow_end,borrowed_books_count,active
u1,Alice,student,Science School,English,,,,0,true
u2,Noora,ministry,Libraries Dept,Arabic,,,,0,false
`

const booksFixture = `title,subject,language,grade_level,description,status,borrow_start,borrow_end
Artificial Intelligence in Education,ai,English,8,How AI changes classrooms,available,,
`

func setupTestService(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	usersPath := filepath.Join(dir, "users_profiles.csv")
	booksPath := filepath.Join(dir, "books.csv")
	require.NoError(t, os.WriteFile(usersPath, []byte(usersFixture), 0o644))
	require.NoError(t, os.WriteFile(booksPath, []byte(booksFixture), 0o644))
	store = catalog.NewStore(usersPath, booksPath)
	engine := retrieval.NewEngine(func() (domain.Index, error) {
		return nil, errors.New("index absent")
	})
	machine := lending.NewMachine(store, engine)
	svc = assistant.NewService(intent.NewRouter(), machine, engine, nil, nil)
}

func TestHealthCheck(t *testing.T) {
	setupTestService(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/manage/health", nil)

	healthCheck(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "UP", response["status"])
}

func TestGetUsersFiltersInactive(t *testing.T) {
	setupTestService(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/users", nil)

	getUsers(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	items := response["items"].([]interface{})
	require.Len(t, items, 1)
	user := items[0].(map[string]interface{})
	assert.Equal(t, "Alice", user["name"])
}

func TestPostChat(t *testing.T) {
	setupTestService(t)

	body, _ := json.Marshal(map[string]string{
		"userId":   "u1",
		"question": "recommend me something",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	postChat(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "recommend", response["intent"])
	assert.NotEmpty(t, response["interactionId"])
	assert.Contains(t, response["answer"], "Artificial Intelligence in Education")
}

func TestPostChatUnknownUser(t *testing.T) {
	setupTestService(t)

	body, _ := json.Marshal(map[string]string{
		"userId":   "ghost",
		"question": "hello",
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	postChat(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostChatMissingFields(t *testing.T) {
	setupTestService(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/chat", bytes.NewReader([]byte(`{"userId":"u1"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	postChat(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
