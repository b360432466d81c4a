package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sgti/configs"
	"sgti/internal/config"
	"sgti/internal/middleware"
	"sgti/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// setupTestApp wires a fiber app against the test database. Skips the test
// when no database is reachable so the unit suite stays runnable anywhere.
func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	cfg := configs.LoadConfig()
	dbName := cfg.DBNameTest
	if dbName == "" {
		dbName = cfg.DBName
	}
	psqlconn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, dbName)
	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	config.DB = db
	repository.CreateTableIfNotExists(db)

	app := fiber.New()
	app.Post("/api/auth/register", Register)
	app.Post("/api/auth/login", Login)
	app.Post("/api/auth/refresh", Refresh)
	app.Get("/api/auth/me", middleware.UseToken, Me)
	app.Post("/api/tasks/", middleware.UseToken, CreateTask)
	app.Get("/api/tasks/", middleware.UseToken, ListTasks)
	app.Put("/api/tasks/:id", middleware.UseToken, UpdateTask)
	app.Post("/api/tasks/:id/subtasks", middleware.UseToken, CreateSubtask)
	app.Post("/api/projects/", middleware.UseToken, CreateProject)
	app.Post("/api/ai/summary/generate", middleware.UseToken, GenerateSummaryHandler)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, url, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, result
}

func registerAndLogin(t *testing.T, app *fiber.App) string {
	t.Helper()

	email := fmt.Sprintf("user_%d@example.com", time.Now().UnixNano())
	status, _ := doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "secret123",
	})
	if status != 201 {
		t.Fatalf("register: expected 201, got %d", status)
	}

	status, result := doJSON(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "secret123",
	})
	if status != 200 {
		t.Fatalf("login: expected 200, got %d", status)
	}
	data := result["data"].(map[string]interface{})
	return data["access_token"].(string)
}

func TestRegisterLoginAndMe(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app)

	status, result := doJSON(t, app, "GET", "/api/auth/me", token, nil)
	if status != 200 {
		t.Fatalf("me: expected 200, got %d", status)
	}
	user := result["data"].(map[string]interface{})
	if user["email"] == "" {
		t.Fatal("me: expected email in response")
	}
	if _, leaked := user["hashed_password"]; leaked {
		t.Fatal("me: hashed password must not be serialized")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	app := setupTestApp(t)

	email := fmt.Sprintf("dup_%d@example.com", time.Now().UnixNano())
	body := map[string]string{"email": email, "password": "secret123"}

	status, _ := doJSON(t, app, "POST", "/api/auth/register", "", body)
	if status != 201 {
		t.Fatalf("first register: expected 201, got %d", status)
	}
	status, _ = doJSON(t, app, "POST", "/api/auth/register", "", body)
	if status != 409 {
		t.Fatalf("second register: expected 409, got %d", status)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	app := setupTestApp(t)

	email := fmt.Sprintf("wrong_%d@example.com", time.Now().UnixNano())
	doJSON(t, app, "POST", "/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "secret123",
	})

	status, result := doJSON(t, app, "POST", "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "not-the-password",
	})
	if status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
	if result["message"] != "Invalid credentials" {
		t.Fatalf("expected generic message, got %v", result["message"])
	}
}

func TestCreateAndListTasksWithLocaleFilter(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app)

	status, _ := doJSON(t, app, "POST", "/api/tasks/", token, map[string]interface{}{
		"title":    "Tarefa pendente",
		"status":   "a_fazer",
		"priority": "alta",
	})
	if status != 201 {
		t.Fatalf("create task: expected 201, got %d", status)
	}
	status, _ = doJSON(t, app, "POST", "/api/tasks/", token, map[string]interface{}{
		"title":  "Tarefa feita",
		"status": "concluida",
	})
	if status != 201 {
		t.Fatalf("create task: expected 201, got %d", status)
	}

	// Filtering by the English alias must match the Portuguese spelling too
	status, result := doJSON(t, app, "GET", "/api/tasks/?status=todo", token, nil)
	if status != 200 {
		t.Fatalf("list: expected 200, got %d", status)
	}
	data := result["data"].(map[string]interface{})
	if total := data["total"].(float64); total != 1 {
		t.Fatalf("expected 1 todo task, got %v", total)
	}
	tasks := data["tasks"].([]interface{})
	task := tasks[0].(map[string]interface{})
	if task["title"] != "Tarefa pendente" {
		t.Fatalf("unexpected task: %v", task["title"])
	}
	if task["status"] != "todo" {
		t.Fatalf("expected canonical stored status, got %v", task["status"])
	}
}

func TestUpdateTaskStatusTogglesCompletedAt(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app)

	status, result := doJSON(t, app, "POST", "/api/tasks/", token, map[string]interface{}{
		"title":  "Relatório mensal",
		"status": "a_fazer",
	})
	if status != 201 {
		t.Fatalf("create task: expected 201, got %d", status)
	}
	taskID := result["data"].(map[string]interface{})["id"].(string)

	// Entering the done class stamps completed_at
	status, result = doJSON(t, app, "PUT", "/api/tasks/"+taskID, token, map[string]interface{}{
		"status": "concluida",
	})
	if status != 200 {
		t.Fatalf("update to concluida: expected 200, got %d", status)
	}
	task := result["data"].(map[string]interface{})
	if task["status"] != "done" {
		t.Fatalf("expected canonical done status, got %v", task["status"])
	}
	if task["completed_at"] == nil {
		t.Fatal("expected completed_at to be set after completion")
	}

	// Leaving the done class clears it again
	status, result = doJSON(t, app, "PUT", "/api/tasks/"+taskID, token, map[string]interface{}{
		"status": "em_progresso",
	})
	if status != 200 {
		t.Fatalf("update to em_progresso: expected 200, got %d", status)
	}
	task = result["data"].(map[string]interface{})
	if task["status"] != "in_progress" {
		t.Fatalf("expected canonical in_progress status, got %v", task["status"])
	}
	if task["completed_at"] != nil {
		t.Fatalf("expected completed_at cleared after reopening, got %v", task["completed_at"])
	}
}

func TestListTasksPagination(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app)

	for i := 0; i < 5; i++ {
		status, _ := doJSON(t, app, "POST", "/api/tasks/", token, map[string]interface{}{
			"title": fmt.Sprintf("Tarefa %d", i),
		})
		if status != 201 {
			t.Fatalf("create task %d: expected 201, got %d", i, status)
		}
	}

	seen := map[string]bool{}
	pageSizes := []int{2, 2, 1}
	for page, want := range pageSizes {
		offset := page * 2
		url := fmt.Sprintf("/api/tasks/?limit=2&offset=%d&sort_by=title&sort_order=asc", offset)
		status, result := doJSON(t, app, "GET", url, token, nil)
		if status != 200 {
			t.Fatalf("list offset %d: expected 200, got %d", offset, status)
		}
		data := result["data"].(map[string]interface{})
		if total := data["total"].(float64); total != 5 {
			t.Fatalf("offset %d: expected stable total 5, got %v", offset, total)
		}
		tasks := data["tasks"].([]interface{})
		if len(tasks) != want {
			t.Fatalf("offset %d: expected %d tasks, got %d", offset, want, len(tasks))
		}
		for _, raw := range tasks {
			id := raw.(map[string]interface{})["id"].(string)
			if seen[id] {
				t.Fatalf("task %s returned on more than one page", id)
			}
			seen[id] = true
		}
	}
	if len(seen) != 5 {
		t.Fatalf("expected 5 distinct tasks across pages, got %d", len(seen))
	}
}

func TestCreateSubtaskDefaults(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app)

	status, result := doJSON(t, app, "POST", "/api/projects/", token, map[string]interface{}{
		"name": "Projeto casa",
	})
	if status != 201 {
		t.Fatalf("create project: expected 201, got %d", status)
	}
	projectID := result["data"].(map[string]interface{})["id"].(string)

	status, result = doJSON(t, app, "POST", "/api/tasks/", token, map[string]interface{}{
		"title":      "Reforma",
		"priority":   "alta",
		"project_id": projectID,
	})
	if status != 201 {
		t.Fatalf("create parent: expected 201, got %d", status)
	}
	parentID := result["data"].(map[string]interface{})["id"].(string)

	// Only ownership comes from the parent; priority defaults to medium and
	// the project is not inherited
	status, result = doJSON(t, app, "POST", "/api/tasks/"+parentID+"/subtasks", token, map[string]interface{}{
		"title": "Comprar tinta",
	})
	if status != 201 {
		t.Fatalf("create subtask: expected 201, got %d", status)
	}
	subtask := result["data"].(map[string]interface{})
	if subtask["priority"] != "medium" {
		t.Fatalf("expected default medium priority, got %v", subtask["priority"])
	}
	if subtask["project_id"] != nil {
		t.Fatalf("expected no inherited project, got %v", subtask["project_id"])
	}
	if subtask["parent_task_id"] != parentID {
		t.Fatalf("expected parent %s, got %v", parentID, subtask["parent_task_id"])
	}

	// An explicit project on the request still lands on the subtask
	status, result = doJSON(t, app, "POST", "/api/tasks/"+parentID+"/subtasks", token, map[string]interface{}{
		"title":      "Pintar parede",
		"project_id": projectID,
	})
	if status != 201 {
		t.Fatalf("create subtask with project: expected 201, got %d", status)
	}
	subtask = result["data"].(map[string]interface{})
	if subtask["project_id"] != projectID {
		t.Fatalf("expected project %s, got %v", projectID, subtask["project_id"])
	}
}

func TestGenerateSummaryViaPost(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app)

	status, result := doJSON(t, app, "POST", "/api/ai/summary/generate", token, map[string]interface{}{
		"period": "weekly",
	})
	if status != 200 {
		t.Fatalf("summary: expected 200, got %d", status)
	}
	data := result["data"].(map[string]interface{})
	if data["period"] != "weekly" {
		t.Fatalf("expected weekly period, got %v", data["period"])
	}

	// Omitted period falls back to the daily digest
	status, result = doJSON(t, app, "POST", "/api/ai/summary/generate", token, map[string]interface{}{})
	if status != 200 {
		t.Fatalf("summary default: expected 200, got %d", status)
	}
	data = result["data"].(map[string]interface{})
	if data["period"] != "daily" {
		t.Fatalf("expected daily period, got %v", data["period"])
	}

	status, _ = doJSON(t, app, "POST", "/api/ai/summary/generate", token, map[string]interface{}{
		"period": "hourly",
	})
	if status != 400 {
		t.Fatalf("summary invalid period: expected 400, got %d", status)
	}
}

func TestTasksRequireAuth(t *testing.T) {
	app := setupTestApp(t)

	status, _ := doJSON(t, app, "GET", "/api/tasks/", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}
