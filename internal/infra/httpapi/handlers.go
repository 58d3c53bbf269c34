package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"deferred_notifier/internal/domain/notification"
	"deferred_notifier/internal/domain/notifytype"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// NotificationAPI is the service behind the HTTP surface.
type NotificationAPI interface {
	ListTypes() []notifytype.Info
	Create(ctx context.Context, payload any) (string, error)
	Info(ctx context.Context, id string) (*notification.Notification, []notification.Row, error)
	ListRows(ctx context.Context, id string) ([]notification.Row, error)
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
}

type NotificationHandler struct {
	svc    NotificationAPI
	logger *logrus.Entry
}

func NewNotificationHandler(svc NotificationAPI, logger *logrus.Entry) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

func (h *NotificationHandler) CreateInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ListTypes())
}

// Create answers with HTTP 200 for rejected payloads; the outcome is in "ok".
func (h *NotificationHandler) Create(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, createResponse{OK: false, Message: "Could not read request body."})
		return
	}

	payload, err := notifytype.DecodePayload(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, createResponse{OK: false, Message: "Body must be valid JSON."})
		return
	}

	id, err := h.svc.Create(c.Request.Context(), payload)
	if err != nil {
		var verr *notifytype.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusOK, createResponse{OK: false, Message: verr.Message})
			return
		}
		h.logger.WithError(err).Error("Failed to create notification")
		c.JSON(http.StatusInternalServerError, createResponse{OK: false, Message: "Internal error."})
		return
	}

	c.JSON(http.StatusOK, createResponse{OK: true, UUID: id})
}

func (h *NotificationHandler) Info(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}

	n, rows, err := h.svc.Info(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Detail: "UUID not found."})
			return
		}
		h.logger.WithError(err).WithField("notification_id", id).Error("Failed to load notification")
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Internal error."})
		return
	}

	c.JSON(http.StatusOK, infoResponse{
		OK:           true,
		Notification: toNotificationView(n),
		Rows:         toRowViews(rows),
	})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			c.JSON(http.StatusOK, statusResponse{OK: false, Message: "UUID not found."})
			return
		}
		h.logger.WithError(err).WithField("notification_id", id).Error("Failed to delete notification")
		c.JSON(http.StatusInternalServerError, statusResponse{OK: false, Message: "Internal error."})
		return
	}

	c.JSON(http.StatusOK, statusResponse{OK: true})
}

func (h *NotificationHandler) List(c *gin.Context) {
	rows, err := h.svc.ListRows(c.Request.Context(), strings.TrimSpace(c.Query("uuid")))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list schedule")
		c.JSON(http.StatusInternalServerError, errorResponse{Detail: "Internal error."})
		return
	}
	c.JSON(http.StatusOK, toRowViews(rows))
}

func (h *NotificationHandler) SetActive(c *gin.Context) {
	id, ok := requireUUID(c)
	if !ok {
		return
	}
	active, err := strconv.ParseBool(c.Query("active"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "Query parameter 'active' must be true or false."})
		return
	}

	if err := h.svc.SetActive(c.Request.Context(), id, active); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			c.JSON(http.StatusOK, statusResponse{OK: false, Message: "UUID not found."})
			return
		}
		h.logger.WithError(err).WithField("notification_id", id).Error("Failed to change activation")
		c.JSON(http.StatusInternalServerError, statusResponse{OK: false, Message: "Internal error."})
		return
	}

	c.JSON(http.StatusOK, statusResponse{OK: true})
}

func requireUUID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Query("uuid"))
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "Query parameter 'uuid' is required."})
		return "", false
	}
	return id, true
}
