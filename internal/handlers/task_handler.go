package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-next-tasks/backend/internal/models"
	"go-next-tasks/backend/internal/repositories"
	"go-next-tasks/backend/internal/services"
)

// RequestIDKey は gin.Context にリクエストIDを保存するキーです。
const RequestIDKey = "request_id"

// TaskDeletedMessage は削除成功時に返すメッセージです。
const TaskDeletedMessage = "Task deleted"

// TaskHandler はTask関連のハンドラーを管理します。
type TaskHandler struct {
	taskService *services.TaskService
	log         logrus.FieldLogger
}

// NewTaskHandler は新しいTaskHandlerを作成します。
func NewTaskHandler(taskService *services.TaskService, log logrus.FieldLogger) *TaskHandler {
	useJSONFieldNames()
	return &TaskHandler{taskService: taskService, log: log}
}

// GetTasksHandler はすべてのTaskを取得します。
func (h *TaskHandler) GetTasksHandler(c *gin.Context) {
	entry := h.entry(c, "list_tasks")

	tasks, err := h.taskService.GetTasks(c.Request.Context())
	if err != nil {
		h.internalError(c, entry, err)
		return
	}

	entry.WithFields(logrus.Fields{"count": len(tasks), "outcome": "success"}).Info("Listed tasks")
	c.JSON(http.StatusOK, tasks)
}

// CreateTaskHandler は新しいTaskを作成します。completed は常に false で作成されます。
func (h *TaskHandler) CreateTaskHandler(c *gin.Context) {
	entry := h.entry(c, "create_task")

	var req models.TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		entry.WithFields(logrus.Fields{"outcome": "invalid", "error": err.Error()}).Warn("Rejected task creation")
		abortValidation(c, bindingDetails(err))
		return
	}
	entry = entry.WithField("title_length", utf8.RuneCountInString(req.Title))

	created, err := h.taskService.CreateTask(c.Request.Context(), req.Title)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidTitle) {
			entry.WithFields(logrus.Fields{"outcome": "invalid", "error": err.Error()}).Warn("Rejected task creation")
			abortValidation(c, []ValidationDetail{{Loc: []string{"body", "title"}, Msg: err.Error(), Type: "value_error"}})
			return
		}
		h.internalError(c, entry, err)
		return
	}

	entry.WithFields(logrus.Fields{"task_id": created.ID, "outcome": "success"}).Info("Created task")
	c.JSON(http.StatusOK, created)
}

// UpdateTaskHandler はTaskの完了状態を更新します。タイトルは変更できません。
func (h *TaskHandler) UpdateTaskHandler(c *gin.Context) {
	entry := h.entry(c, "update_task")

	id, ok := h.taskID(c, entry)
	if !ok {
		return
	}
	entry = entry.WithField("task_id", id)

	var req models.TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		entry.WithFields(logrus.Fields{"outcome": "invalid", "error": err.Error()}).Warn("Rejected task update")
		abortValidation(c, bindingDetails(err))
		return
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), id, *req.Completed)
	if err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			h.notFound(c, entry, id)
			return
		}
		h.internalError(c, entry, err)
		return
	}

	entry.WithFields(logrus.Fields{"completed": updated.Completed, "outcome": "success"}).Info("Updated task")
	c.JSON(http.StatusOK, updated)
}

// DeleteTaskHandler はTaskを削除します。
func (h *TaskHandler) DeleteTaskHandler(c *gin.Context) {
	entry := h.entry(c, "delete_task")

	id, ok := h.taskID(c, entry)
	if !ok {
		return
	}
	entry = entry.WithField("task_id", id)

	if err := h.taskService.DeleteTask(c.Request.Context(), id); err != nil {
		if errors.Is(err, repositories.ErrTaskNotFound) {
			h.notFound(c, entry, id)
			return
		}
		h.internalError(c, entry, err)
		return
	}

	entry.WithField("outcome", "success").Info("Deleted task")
	c.JSON(http.StatusOK, models.MessageResponse{Message: TaskDeletedMessage})
}

func (h *TaskHandler) entry(c *gin.Context, operation string) *logrus.Entry {
	return h.log.WithFields(logrus.Fields{
		"operation":  operation,
		"request_id": c.GetString(RequestIDKey),
	})
}

// taskID はパスパラメータ :id を整数として取り出します。失敗時は422を返します。
func (h *TaskHandler) taskID(c *gin.Context, entry *logrus.Entry) (int, bool) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		entry.WithFields(logrus.Fields{"task_id": idStr, "outcome": "invalid"}).Warn("Invalid task ID")
		abortValidation(c, []ValidationDetail{{
			Loc:  []string{"path", "id"},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		}})
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) notFound(c *gin.Context, entry *logrus.Entry, id int) {
	entry.WithField("outcome", "not_found").Warn("Task not found")
	c.JSON(http.StatusNotFound, gin.H{"detail": fmt.Sprintf("Task %d not found", id)})
}

// internalError はエラー内容をログにのみ残し、クライアントには汎用メッセージを返します。
func (h *TaskHandler) internalError(c *gin.Context, entry *logrus.Entry, err error) {
	entry.WithFields(logrus.Fields{"outcome": "error", "error": err.Error()}).Error("Task operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}
