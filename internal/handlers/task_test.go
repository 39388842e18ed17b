package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/yukikurage/taskflow-api/internal/dto"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/notify"
	"github.com/yukikurage/taskflow-api/internal/testdb"
)

func (suite *APITestSuite) createTask(token string, body map[string]any) dto.TaskDTO {
	w := suite.request(http.MethodPost, "/api/tasks/", token, body)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var task dto.TaskDTO
	suite.decode(w, &task)
	return task
}

func (suite *APITestSuite) TestCreateTaskDefaultsAndAssignedTrigger() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)

	task := suite.createTask(suite.aliceToken, map[string]any{
		"title":            "Write copy",
		"project_id":       project.ID,
		"due_date":         "2026-11-05",
		"assigned_user_id": suite.bob.ID,
	})
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskPriorityMedium, task.Priority)
	suite.Require().NotNil(task.DueDate)
	suite.True(task.DueDate.Equal(time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC)))

	triggers := suite.sink.recorded()
	suite.Require().Len(triggers, 1)
	suite.Equal(notify.KindAssigned, triggers[0].Kind)
	suite.Equal(task.ID, triggers[0].TaskID)

	suite.createTask(suite.aliceToken, map[string]any{"title": "Unassigned", "project_id": project.ID})
	suite.Len(suite.sink.recorded(), 1)
}

func (suite *APITestSuite) TestCreateTaskValidation() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)

	cases := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"missing title", map[string]any{"project_id": project.ID}, "title"},
		{"bad status", map[string]any{"title": "t", "project_id": project.ID, "status": "DOING"}, "status"},
		{"bad priority", map[string]any{"title": "t", "project_id": project.ID, "priority": "URGENT"}, "priority"},
		{"bad due date", map[string]any{"title": "t", "project_id": project.ID, "due_date": "soon"}, "due_date"},
		{"unknown assignee", map[string]any{"title": "t", "project_id": project.ID, "assigned_user_id": 999}, "assigned_user_id"},
	}
	for _, tc := range cases {
		w := suite.request(http.MethodPost, "/api/tasks/", suite.aliceToken, tc.body)
		suite.Equal(http.StatusUnprocessableEntity, w.Code, tc.name)
		suite.Contains(w.Body.String(), fmt.Sprintf(`"field":%q`, tc.field), tc.name)
	}
	suite.Empty(suite.sink.recorded())
}

func (suite *APITestSuite) TestCreateTaskInForeignProject() {
	project := testdb.CreateProject(suite.T(), suite.db, "Alice's", suite.alice.ID)

	w := suite.request(http.MethodPost, "/api/tasks/", suite.bobToken, map[string]any{
		"title": "Sneaky", "project_id": project.ID,
	})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestUpdateTaskTriggers() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)
	task := suite.createTask(suite.aliceToken, map[string]any{"title": "T", "project_id": project.ID})
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.request(http.MethodPatch, path, suite.aliceToken, map[string]any{"description": "more detail"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Empty(suite.sink.recorded())

	w = suite.request(http.MethodPatch, path, suite.aliceToken, map[string]any{"status": "DONE"})
	suite.Require().Equal(http.StatusOK, w.Code)
	triggers := suite.sink.recorded()
	suite.Require().Len(triggers, 1)
	suite.Equal(notify.KindStatusChanged, triggers[0].Kind)
	suite.Equal(models.TaskStatusTodo, triggers[0].OldStatus)
	suite.Equal(models.TaskStatusDone, triggers[0].NewStatus)

	w = suite.request(http.MethodPatch, path, suite.aliceToken, map[string]any{"assigned_user_id": suite.bob.ID})
	suite.Require().Equal(http.StatusOK, w.Code)
	triggers = suite.sink.recorded()
	suite.Require().Len(triggers, 2)
	suite.Equal(notify.KindAssigned, triggers[1].Kind)

	w = suite.request(http.MethodPatch, path, suite.aliceToken, `{"assigned_user_id": null}`)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(suite.sink.recorded(), 2)
	suite.Nil(suite.reloadTask(task.ID).AssignedUserID)
}

func (suite *APITestSuite) TestUpdateTaskPartialSemantics() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)
	task := suite.createTask(suite.aliceToken, map[string]any{
		"title":       "T",
		"description": "keep me",
		"project_id":  project.ID,
		"due_date":    "2026-11-05T09:00:00Z",
	})
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.request(http.MethodPatch, path, suite.aliceToken, map[string]any{"priority": "HIGH"})
	suite.Require().Equal(http.StatusOK, w.Code)
	var first dto.TaskDTO
	suite.decode(w, &first)
	suite.Equal(models.TaskPriorityHigh, first.Priority)
	suite.Equal("keep me", *first.Description)
	suite.NotNil(first.DueDate)

	w = suite.request(http.MethodPatch, path, suite.aliceToken, map[string]any{"priority": "HIGH"})
	suite.Require().Equal(http.StatusOK, w.Code)
	var second dto.TaskDTO
	suite.decode(w, &second)
	suite.Equal(first.Priority, second.Priority)
	suite.Equal(first.Title, second.Title)
	suite.True(second.UpdatedAt.After(first.UpdatedAt))

	w = suite.request(http.MethodPatch, path, suite.aliceToken, `{"description": null, "due_date": null}`)
	suite.Require().Equal(http.StatusOK, w.Code)
	var cleared dto.TaskDTO
	suite.decode(w, &cleared)
	suite.Nil(cleared.Description)
	suite.Nil(cleared.DueDate)

	for _, field := range []string{"title", "status", "priority", "project_id"} {
		w = suite.request(http.MethodPatch, path, suite.aliceToken, fmt.Sprintf(`{%q: null}`, field))
		suite.Equal(http.StatusUnprocessableEntity, w.Code, field)
		suite.Contains(w.Body.String(), fmt.Sprintf(`"field":%q`, field))
	}
}

func (suite *APITestSuite) TestMoveTaskBetweenProjects() {
	mine := testdb.CreateProject(suite.T(), suite.db, "Mine", suite.alice.ID)
	other := testdb.CreateProject(suite.T(), suite.db, "Also mine", suite.alice.ID)
	foreign := testdb.CreateProject(suite.T(), suite.db, "Bob's", suite.bob.ID)
	task := testdb.CreateTask(suite.T(), suite.db, "T", mine.ID)
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w := suite.request(http.MethodPatch, path, suite.aliceToken, map[string]any{"project_id": foreign.ID})
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal(mine.ID, suite.reloadTask(task.ID).ProjectID)

	w = suite.request(http.MethodPatch, path, suite.aliceToken, map[string]any{"project_id": other.ID})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(other.ID, suite.reloadTask(task.ID).ProjectID)
}

func (suite *APITestSuite) TestForeignTaskIsNotFoundAndUntouched() {
	project := testdb.CreateProject(suite.T(), suite.db, "Alice's", suite.alice.ID)
	task := testdb.CreateTask(suite.T(), suite.db, "Private", project.ID, func(t *models.Task) {
		t.AssignedUserID = &suite.bob.ID
	})
	path := fmt.Sprintf("/api/tasks/%d", task.ID)
	before := suite.reloadTask(task.ID)

	w := suite.request(http.MethodGet, path, suite.bobToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodPatch, path, suite.bobToken, map[string]any{"title": "Hijacked", "status": "DONE"})
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.request(http.MethodDelete, path, suite.bobToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)

	after := suite.reloadTask(task.ID)
	suite.Equal(before.Title, after.Title)
	suite.Equal(before.Status, after.Status)
	suite.True(before.UpdatedAt.Equal(after.UpdatedAt))
	suite.Empty(suite.sink.recorded())

	w = suite.request(http.MethodGet, "/api/tasks/", suite.bobToken, nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("0", w.Header().Get(TotalCountHeader))
}

func (suite *APITestSuite) TestDeleteTaskReturnsDeletedRow() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)
	task := testdb.CreateTask(suite.T(), suite.db, "Bye", project.ID)

	w := suite.request(http.MethodDelete, fmt.Sprintf("/api/tasks/%d/", task.ID), suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var deleted dto.TaskDTO
	suite.decode(w, &deleted)
	suite.Equal("Bye", deleted.Title)

	w = suite.request(http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), suite.aliceToken, nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) TestFailingSinkDoesNotAffectResponse() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)
	suite.sink.err = errBrokerDown

	w := suite.request(http.MethodPost, "/api/tasks/", suite.aliceToken, map[string]any{
		"title":            "Still works",
		"project_id":       project.ID,
		"assigned_user_id": suite.bob.ID,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var task dto.TaskDTO
	suite.decode(w, &task)
	suite.Equal("Still works", task.Title)
	suite.Equal(suite.bob.ID, *task.AssignedUserID)

	w = suite.request(http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), suite.aliceToken,
		map[string]any{"status": "IN_PROGRESS"})
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(models.TaskStatusInProgress, suite.reloadTask(task.ID).Status)
}

func (suite *APITestSuite) TestListTasksPagination() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)
	testdb.CreateTask(suite.T(), suite.db, "first", project.ID)
	second := testdb.CreateTask(suite.T(), suite.db, "second", project.ID)
	testdb.CreateTask(suite.T(), suite.db, "third", project.ID)

	w := suite.request(http.MethodGet, "/api/tasks/?limit=1&page=2", suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var page []dto.TaskDTO
	suite.decode(w, &page)
	suite.Require().Len(page, 1)
	suite.Equal(second.ID, page[0].ID)
	suite.Equal("3", w.Header().Get(TotalCountHeader))

	w = suite.request(http.MethodGet, "/api/tasks?limit=101", suite.aliceToken, nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Contains(w.Body.String(), `"field":"limit"`)

	w = suite.request(http.MethodGet, "/api/tasks?page=0", suite.aliceToken, nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *APITestSuite) TestListTasksSortAndFilter() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)
	other := testdb.CreateProject(suite.T(), suite.db, "Q", suite.alice.ID)
	withPriority := func(p models.TaskPriority) func(*models.Task) {
		return func(t *models.Task) { t.Priority = p }
	}
	testdb.CreateTask(suite.T(), suite.db, "low", project.ID, withPriority(models.TaskPriorityLow))
	testdb.CreateTask(suite.T(), suite.db, "high", project.ID, withPriority(models.TaskPriorityHigh))
	testdb.CreateTask(suite.T(), suite.db, "medium", project.ID, withPriority(models.TaskPriorityMedium))
	testdb.CreateTask(suite.T(), suite.db, "done", other.ID, func(t *models.Task) {
		t.Status = models.TaskStatusDone
	})

	w := suite.request(http.MethodGet, fmt.Sprintf("/api/tasks/?sort=priority&sort_order=desc&project_id=%d", project.ID), suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var sorted []dto.TaskDTO
	suite.decode(w, &sorted)
	suite.Require().Len(sorted, 3)
	suite.Equal([]string{"high", "medium", "low"}, []string{sorted[0].Title, sorted[1].Title, sorted[2].Title})

	w = suite.request(http.MethodGet, "/api/tasks/?status=DONE", suite.aliceToken, nil)
	var done []dto.TaskDTO
	suite.decode(w, &done)
	suite.Require().Len(done, 1)
	suite.Equal("done", done[0].Title)

	w = suite.request(http.MethodGet, "/api/tasks/?status=LATER", suite.aliceToken, nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)

	w = suite.request(http.MethodGet, "/api/tasks/?sort_order=sideways", suite.aliceToken, nil)
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Contains(w.Body.String(), `"field":"sort_order"`)

	w = suite.request(http.MethodGet, "/api/tasks/?sort=colour", suite.aliceToken, nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestListTasksDueDateFilter() {
	project := testdb.CreateProject(suite.T(), suite.db, "P", suite.alice.ID)
	due := time.Date(2026, 11, 5, 0, 0, 0, 0, time.UTC)
	testdb.CreateTask(suite.T(), suite.db, "due", project.ID, func(t *models.Task) { t.DueDate = &due })
	testdb.CreateTask(suite.T(), suite.db, "undated", project.ID)

	w := suite.request(http.MethodGet, "/api/tasks/?due_date=2026-11-05", suite.aliceToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var tasks []dto.TaskDTO
	suite.decode(w, &tasks)
	suite.Require().Len(tasks, 1)
	suite.Equal("due", tasks[0].Title)
}
