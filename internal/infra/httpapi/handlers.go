package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"birthday_notifier/internal/app"
	"birthday_notifier/internal/domain/notify"
	"birthday_notifier/internal/domain/recipient"
	"birthday_notifier/internal/domain/sendlog"

	"github.com/gin-gonic/gin"
)

const dayFormat = "2006-01-02"

type UpsertUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	DOB   string `json:"dob" binding:"required"`
}

type Handler struct {
	dispatch app.DispatchService
	admin    *app.AdminService
	location *time.Location
}

func NewHandler(dispatch app.DispatchService, admin *app.AdminService, location *time.Location) *Handler {
	return &Handler{
		dispatch: dispatch,
		admin:    admin,
		location: location,
	}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users", h.ListUsers)
	router.GET("/users/:email", h.GetUser)
	router.POST("/users", h.UpsertUser)
	router.GET("/dashboard", h.Dashboard)
	router.GET("/logs", h.ListLogs)
	router.DELETE("/logs", h.ClearLogs)
	router.POST("/dispatch/run", h.TriggerDispatch)
}

func (h *Handler) ListUsers(c *gin.Context) {
	recipients, err := h.admin.ListRecipients(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": userViews(recipients)})
}

func (h *Handler) GetUser(c *gin.Context) {
	rec, err := h.admin.GetRecipient(c.Request.Context(), c.Param("email"))
	if err != nil {
		if errors.Is(err, app.ErrRecipientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userView(rec)})
}

func (h *Handler) UpsertUser(c *gin.Context) {
	var req UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	rec, err := h.admin.UpsertRecipient(c.Request.Context(), req.Name, req.Email, req.DOB)
	if err != nil {
		switch err {
		case app.ErrInvalidEmail, app.ErrInvalidName, app.ErrInvalidDateOfBirth:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userView(rec)})
}

func (h *Handler) Dashboard(c *gin.Context) {
	sum, err := h.dispatch.Summary(c.Request.Context(), time.Now().In(h.location))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build dashboard summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"today":           sum.Today,
		"totalRecipients": sum.TotalRecipients,
		"birthdaysToday":  userViews(sum.BirthdaysToday),
		"emailsSentToday": sum.SentToday,
		"logs":            recordViews(sum.RecentRecords),
	})
}

func (h *Handler) ListLogs(c *gin.Context) {
	if dayStr := c.Query("day"); dayStr != "" {
		day, err := time.Parse(dayFormat, dayStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "day must be in YYYY-MM-DD format"})
			return
		}
		records, err := h.admin.SendRecordsForDay(c.Request.Context(), day)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": recordViews(records)})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	records, err := h.admin.RecentSendRecords(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": recordViews(records)})
}

func (h *Handler) ClearLogs(c *gin.Context) {
	if err := h.admin.ClearSendHistory(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Logs cleared."})
}

// TriggerDispatch runs one dispatch cycle immediately. This is the manual
// counterpart of the cron trigger and may race it freely; the engine's
// claim step keeps the at-most-once-per-day guarantee either way.
func (h *Handler) TriggerDispatch(c *gin.Context) {
	result, err := h.dispatch.RunCycle(c.Request.Context(), time.Now().In(h.location))

	switch {
	case errors.Is(err, app.ErrCycleInProgress):
		c.JSON(http.StatusOK, gin.H{"status": "skipped", "message": "Another cycle is running."})
	case errors.Is(err, notify.ErrQuotaExceeded):
		sent := []string{}
		if result != nil {
			sent = result.Notified
		}
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "limit_exceeded",
			"message": "Send quota exceeded. Remaining recipients were not processed.",
			"sent":    sent,
		})
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Dispatch cycle failed"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"status":         "done",
			"sent":           result.Notified,
			"birthdaysToday": userViews(result.BirthdaysToday),
		})
	}
}

func userView(r *recipient.Recipient) gin.H {
	return gin.H{
		"name":  r.Name,
		"email": r.Email,
		"dob":   r.DateOfBirth.Format(dayFormat),
	}
}

func userViews(recipients []*recipient.Recipient) []gin.H {
	views := make([]gin.H, 0, len(recipients))
	for _, r := range recipients {
		views = append(views, userView(r))
	}
	return views
}

func recordViews(records []*sendlog.Record) []gin.H {
	views := make([]gin.H, 0, len(records))
	for _, rec := range records {
		views = append(views, gin.H{
			"name":       rec.Name,
			"email":      rec.Email,
			"dob":        rec.DateOfBirth.Format(dayFormat),
			"sentAt":     rec.SentAt.Format(time.RFC3339),
			"sentAtDate": rec.SentDay.Format(dayFormat),
		})
	}
	return views
}
