package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/handler"
	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
	"github.com/BuzzLyutic/task-tracker-api/internal/service"
)

// actorID=2 - "Bob" из сида
const testActorID = 2

func setupE2EServer(t *testing.T) (*httptest.Server, string, func()) {
	pool, cleanup := SetupTestDB(t)
	TruncateTasks(t, pool)

	uploadDir := t.TempDir()
	logger := zap.NewNop()

	taskRepo := repo.NewTaskRepo(pool)
	commentRepo := repo.NewCommentRepo(pool)
	attachmentRepo := repo.NewAttachmentRepo(pool)
	lookupRepo := repo.NewLookupRepo(pool)

	taskService := service.NewTaskService(taskRepo)
	commentService := service.NewCommentService(taskRepo, commentRepo)
	attachmentService := service.NewAttachmentService(taskRepo, attachmentRepo, uploadDir, logger)
	lookupService := service.NewLookupService(lookupRepo)

	taskHandler := handler.NewTaskHandler(taskService, logger, testActorID)
	commentHandler := handler.NewCommentHandler(commentService, logger, testActorID)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService, logger, testActorID)
	lookupHandler := handler.NewLookupHandler(lookupService, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/users", lookupHandler.Users)
		r.Get("/categories", lookupHandler.Categories)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.List)
			r.Post("/", taskHandler.Create)
			r.Get("/counts", taskHandler.Counts)
			r.Get("/deleted", taskHandler.Deleted)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.Get)
				r.Patch("/", taskHandler.Update)
				r.Delete("/", taskHandler.Delete)
				r.Post("/restore", taskHandler.Restore)

				r.Get("/comments", commentHandler.List)
				r.Post("/comments", commentHandler.Create)
				r.Patch("/comments/{commentID}", commentHandler.Update)
				r.Delete("/comments/{commentID}", commentHandler.Delete)

				r.Get("/attachments", attachmentHandler.List)
				r.Post("/attachments", attachmentHandler.Upload)
			})
		})

		r.Get("/attachments/{id}/download", attachmentHandler.Download)
		r.Delete("/attachments/{id}", attachmentHandler.Destroy)
	})

	server := httptest.NewServer(r)

	cleanupFunc := func() {
		server.Close()
		cleanup()
	}

	return server, uploadDir, cleanupFunc
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func uploadFile(t *testing.T, url, filename string, content []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := http.Post(url, w.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestE2E_TaskLifecycle(t *testing.T) {
	server, _, cleanup := setupE2EServer(t)
	defer cleanup()

	// 1. Создание с категориями и исполнителями из сида
	resp := postJSON(t, server.URL+"/api/tasks", map[string]interface{}{
		"title":        "Landing Redesign",
		"status":       "in_progress",
		"category_ids": []int64{1, 2},
		"assignee_ids": []int64{1, 3},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.Task](t, resp)

	require.NotZero(t, created.ID)
	assert.Equal(t, "Landing Redesign", created.Title)
	assert.Len(t, created.Categories, 2)
	assert.Len(t, created.Assignees, 2)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, int64(testActorID), *created.CreatedBy)

	// 2. Частичное обновление: список категорий заменяется целиком
	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/tasks/%d", server.URL, created.ID), map[string]interface{}{
		"status":       "reviews",
		"category_ids": []int64{3},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.Task](t, resp)

	assert.Equal(t, "reviews", updated.Status)
	assert.Equal(t, "Landing Redesign", updated.Title) // не тронуто
	require.Len(t, updated.Categories, 1)
	assert.Equal(t, int64(3), updated.Categories[0].ID)
	assert.Len(t, updated.Assignees, 2) // не тронуто

	// 3. Мягкое удаление
	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/tasks/%d", server.URL, created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	deleted := decode[model.DeletedTask](t, resp)
	assert.Equal(t, created.ID, deleted.ID)
	assert.False(t, deleted.DeletedAt.IsZero())

	// 4. Из активного списка пропала, в корзине появилась
	resp, err := http.Get(server.URL + "/api/tasks")
	require.NoError(t, err)
	active := decode[[]model.Task](t, resp)
	assert.Empty(t, active)

	resp, err = http.Get(server.URL + "/api/tasks/deleted")
	require.NoError(t, err)
	trashed := decode[[]model.Task](t, resp)
	require.Len(t, trashed, 1)
	assert.Equal(t, created.ID, trashed[0].ID)

	// 5. Обновлять удаленную нельзя
	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/api/tasks/%d", server.URL, created.ID), map[string]interface{}{
		"title": "Should fail",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// 6. Восстановление возвращает задачу в прежнем виде
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/tasks/%d/restore", server.URL, created.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	restored := decode[model.Task](t, resp)

	assert.Equal(t, updated.Title, restored.Title)
	assert.Equal(t, updated.Status, restored.Status)
	assert.Equal(t, updated.Categories, restored.Categories)
	assert.Equal(t, updated.Assignees, restored.Assignees)
}

func TestE2E_TaskValidationAndFilters(t *testing.T) {
	server, _, cleanup := setupE2EServer(t)
	defer cleanup()

	t.Run("unknown category ids are silently dropped", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/tasks", map[string]interface{}{
			"title":        "No such category",
			"status":       "done",
			"category_ids": []int64{999999},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		created := decode[model.Task](t, resp)
		assert.Empty(t, created.Categories)
	})

	t.Run("bad payloads rejected", func(t *testing.T) {
		for _, body := range []map[string]interface{}{
			{"title": "ab", "status": "done"},       // слишком короткий title
			{"title": "Valid", "status": "pending"}, // чужой статус
			{"status": "done"},                      // без title
		} {
			resp := postJSON(t, server.URL+"/api/tasks", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			resp.Body.Close()
		}
	})

	t.Run("status filter and counts", func(t *testing.T) {
		resp := postJSON(t, server.URL+"/api/tasks", map[string]interface{}{"title": "In progress", "status": "in_progress"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp, err := http.Get(server.URL + "/api/tasks?status=in_progress")
		require.NoError(t, err)
		filtered := decode[[]model.Task](t, resp)
		for _, task := range filtered {
			assert.Equal(t, "in_progress", task.Status)
		}

		resp, err = http.Get(server.URL + "/api/tasks/counts")
		require.NoError(t, err)
		counts := decode[map[string]int](t, resp)
		assert.Len(t, counts, 4)

		total := 0
		for _, n := range counts {
			total += n
		}
		resp, err = http.Get(server.URL + "/api/tasks")
		require.NoError(t, err)
		all := decode[[]model.Task](t, resp)
		assert.Equal(t, len(all), total)
	})

	t.Run("lookups from seed", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/users")
		require.NoError(t, err)
		users := decode[[]model.User](t, resp)
		assert.Len(t, users, 5)

		resp, err = http.Get(server.URL + "/api/categories")
		require.NoError(t, err)
		categories := decode[[]model.Category](t, resp)
		assert.Len(t, categories, 4)
	})
}

func TestE2E_CommentsFollowTaskVisibility(t *testing.T) {
	server, _, cleanup := setupE2EServer(t)
	defer cleanup()

	resp := postJSON(t, server.URL+"/api/tasks", map[string]interface{}{
		"title":  "Ship v1",
		"status": "in_progress",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decode[model.Task](t, resp)

	commentsURL := fmt.Sprintf("%s/api/tasks/%d/comments", server.URL, task.ID)

	// Комментарий появляется с профилем автора
	resp = postJSON(t, commentsURL, map[string]string{"comment": "LGTM"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := decode[model.Comment](t, resp)
	assert.Equal(t, "LGTM", comment.Comment)
	assert.Equal(t, int64(testActorID), comment.UserID)

	resp, err := http.Get(commentsURL)
	require.NoError(t, err)
	comments := decode[[]model.Comment](t, resp)
	require.Len(t, comments, 1)
	assert.Equal(t, "LGTM", comments[0].Comment)
	require.NotNil(t, comments[0].User)
	assert.Equal(t, "Bob", comments[0].User.FullName)

	// Задача в корзине - комментарии недоступны
	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/tasks/%d", server.URL, task.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(commentsURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, commentsURL, map[string]string{"comment": "into the void"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// После восстановления комментарий на месте
	resp = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/tasks/%d/restore", server.URL, task.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(commentsURL)
	require.NoError(t, err)
	comments = decode[[]model.Comment](t, resp)
	require.Len(t, comments, 1)
	assert.Equal(t, "LGTM", comments[0].Comment)

	// Обновление и удаление комментария
	resp = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/%d", commentsURL, comments[0].ID), map[string]string{"comment": "LGTM!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[model.Comment](t, resp)
	assert.Equal(t, "LGTM!", updated.Comment)

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/%d", commentsURL, comments[0].ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(commentsURL)
	require.NoError(t, err)
	comments = decode[[]model.Comment](t, resp)
	assert.Empty(t, comments)
}

func TestE2E_Attachments(t *testing.T) {
	server, uploadDir, cleanup := setupE2EServer(t)
	defer cleanup()

	resp := postJSON(t, server.URL+"/api/tasks", map[string]interface{}{
		"title":  "With files",
		"status": "reviews",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	task := decode[model.Task](t, resp)

	attachmentsURL := fmt.Sprintf("%s/api/tasks/%d/attachments", server.URL, task.ID)

	t.Run("upload and download round trip", func(t *testing.T) {
		content := []byte("pretend this is a png")
		resp := uploadFile(t, attachmentsURL, "screenshot.png", content)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		att := decode[model.Attachment](t, resp)

		assert.Equal(t, "screenshot.png", att.FileName)
		assert.NotEqual(t, "screenshot.png", att.FilePath)
		assert.Equal(t, int64(len(content)), att.FileSize)

		resp, err := http.Get(fmt.Sprintf("%s/api/attachments/%d/download", server.URL, att.ID))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "screenshot.png")

		got, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("oversized upload leaves no orphan file", func(t *testing.T) {
		before, err := os.ReadDir(uploadDir)
		require.NoError(t, err)

		resp := uploadFile(t, attachmentsURL, "huge.pdf", make([]byte, 10<<20))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()

		after, err := os.ReadDir(uploadDir)
		require.NoError(t, err)
		assert.Equal(t, len(before), len(after))
	})

	t.Run("disallowed extension rejected", func(t *testing.T) {
		resp := uploadFile(t, attachmentsURL, "script.exe", []byte("MZ"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("destroy survives a file already removed from disk", func(t *testing.T) {
		resp := uploadFile(t, attachmentsURL, "doomed.jpg", []byte("jpg bytes"))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		att := decode[model.Attachment](t, resp)

		// Файл убрали руками - запись все равно должна удалиться
		require.NoError(t, os.Remove(fmt.Sprintf("%s/%s", uploadDir, att.FilePath)))

		resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/attachments/%d", server.URL, att.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp, err := http.Get(fmt.Sprintf("%s/api/attachments/%d/download", server.URL, att.ID))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("record present but file missing is a distinct 404", func(t *testing.T) {
		resp := uploadFile(t, attachmentsURL, "ghost.pdf", []byte("pdf bytes"))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		att := decode[model.Attachment](t, resp)

		require.NoError(t, os.Remove(fmt.Sprintf("%s/%s", uploadDir, att.FilePath)))

		resp, err := http.Get(fmt.Sprintf("%s/api/attachments/%d/download", server.URL, att.ID))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("attachments of a trashed task are unreachable", func(t *testing.T) {
		resp := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/tasks/%d", server.URL, task.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()

		resp, err := http.Get(attachmentsURL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()

		resp = uploadFile(t, attachmentsURL, "late.png", []byte("png"))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}
