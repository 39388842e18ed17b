package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/yukikurage/taskflow-api/internal/dto"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/services"
	"github.com/yukikurage/taskflow-api/internal/testdb"
)

func (suite *APITestSuite) TestProjectCRUD() {
	w := suite.request(http.MethodPost, "/api/projects/", suite.aliceToken, map[string]any{
		"name":        "Website",
		"description": "Relaunch",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created dto.ProjectDTO
	suite.decode(w, &created)
	suite.Equal("Website", created.Name)
	suite.Equal(suite.alice.ID, created.OwnerID)

	path := fmt.Sprintf("/api/projects/%d", created.ID)

	w = suite.request(http.MethodPatch, path, suite.aliceToken, `{"description": null}`)
	suite.Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.ProjectDTO
	suite.decode(w, &updated)
	suite.Equal("Website", updated.Name)
	suite.Nil(updated.Description)

	w = suite.request(http.MethodPatch, path, suite.aliceToken, `{"name": null}`)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.request(http.MethodGet, "/api/projects", suite.aliceToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	var list []dto.ProjectDTO
	suite.decode(w, &list)
	suite.Len(list, 1)

	w = suite.request(http.MethodDelete, path+"/", suite.aliceToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	w = suite.request(http.MethodGet, path, suite.aliceToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestProjectCreateValidation() {
	w := suite.request(http.MethodPost, "/api/projects/", suite.aliceToken, map[string]any{})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Contains(w.Body.String(), `"field":"name"`)

	w = suite.request(http.MethodPost, "/api/projects/", suite.aliceToken, nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *APITestSuite) TestForeignProjectIsNotFound() {
	project := testdb.CreateProject(suite.T(), suite.db, "Alice's", suite.alice.ID)
	path := fmt.Sprintf("/api/projects/%d", project.ID)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := suite.request(method, path, suite.bobToken, nil)
		suite.Equal(http.StatusNotFound, w.Code, method)
		suite.Equal("NOT_FOUND", suite.errorCode(w))
	}

	w := suite.request(http.MethodPatch, path, suite.bobToken, map[string]any{"name": "Mine now"})
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodGet, "/api/projects/999", suite.bobToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	var reloaded models.Project
	suite.Require().NoError(suite.db.First(&reloaded, project.ID).Error)
	suite.Equal("Alice's", reloaded.Name)

	w = suite.request(http.MethodGet, "/api/projects/", suite.bobToken, nil)
	suite.Equal("[]", w.Body.String())
}

func (suite *APITestSuite) TestProjectIDMustBeNumeric() {
	w := suite.request(http.MethodGet, "/api/projects/abc", suite.aliceToken, nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Contains(w.Body.String(), `"field":"id"`)
}

func (suite *APITestSuite) TestGetProjectEmbedsTasks() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)
	testdb.CreateTask(suite.T(), suite.db, "one", project.ID)
	testdb.CreateTask(suite.T(), suite.db, "two", project.ID)

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/projects/%d", project.ID), suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var body dto.ProjectWithTasksDTO
	suite.decode(w, &body)
	suite.Len(body.Tasks, 2)
	suite.Equal("one", body.Tasks[0].Title)
}

func (suite *APITestSuite) TestDeleteProjectCascadesTasks() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)
	task := testdb.CreateTask(suite.T(), suite.db, "doomed", project.ID)

	w := suite.request(http.MethodDelete, fmt.Sprintf("/api/projects/%d", project.ID), suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request(http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), suite.aliceToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count).Error)
	suite.Zero(count)
}

func (suite *APITestSuite) TestListProjectsSkipLimit() {
	for i := 0; i < 3; i++ {
		testdb.CreateProject(suite.T(), suite.db, fmt.Sprintf("P%d", i), suite.alice.ID)
	}

	w := suite.request(http.MethodGet, "/api/projects/?skip=1&limit=1", suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list []dto.ProjectDTO
	suite.decode(w, &list)
	suite.Require().Len(list, 1)
	suite.Equal("P1", list[0].Name)

	w = suite.request(http.MethodGet, "/api/projects/?limit=101", suite.aliceToken, nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.request(http.MethodGet, "/api/projects/?skip=-1", suite.aliceToken, nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *APITestSuite) TestSuggestTasksWithoutAI() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)

	w := suite.request(http.MethodPost, fmt.Sprintf("/api/projects/%d/suggestions", project.ID), suite.aliceToken,
		map[string]any{"text": "plan the launch"})
	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.Equal("SERVICE_UNAVAILABLE", suite.errorCode(w))
}

func (suite *APITestSuite) TestSuggestTasks() {
	due := time.Now().Add(72 * time.Hour).UTC()
	suite.ai = stubGenerator{tasks: []services.GeneratedTask{
		{Title: "Draft announcement", Priority: models.TaskPriorityHigh, DueDate: &due},
		{Title: "  "},
	}}
	suite.buildRouter()
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)
	path := fmt.Sprintf("/api/projects/%d/suggestions", project.ID)

	w := suite.request(http.MethodPost, path, suite.aliceToken, map[string]any{"text": "plan the launch"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Suggestions []services.GeneratedTask `json:"suggestions"`
		Count       int                      `json:"count"`
	}
	suite.decode(w, &body)
	suite.Equal(1, body.Count)
	suite.Equal("Draft announcement", body.Suggestions[0].Title)

	w = suite.request(http.MethodPost, path, suite.bobToken, map[string]any{"text": "steal"})
	suite.Equal(http.StatusNotFound, w.Code)

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Task{}).Count(&count).Error)
	suite.Zero(count)
}
