package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/billsync/billsync_backend/config"
	"github.com/billsync/billsync_backend/mailer"
	"github.com/billsync/billsync_backend/razorpay"
	"github.com/billsync/billsync_backend/utils"
)

// Handler carries the request-scoped collaborators every endpoint needs.
// Dependencies are injected at startup instead of read from globals so tests
// can swap them out.
type Handler struct {
	DB       *gorm.DB
	Mailer   *mailer.Mailer
	Payments *razorpay.Client
	Logger   *logrus.Logger
}

func New(db *gorm.DB, m *mailer.Mailer, payments *razorpay.Client, logger *logrus.Logger) *Handler {
	return &Handler{
		DB:       db,
		Mailer:   m,
		Payments: payments,
		Logger:   logger,
	}
}

// respondError maps the error taxonomy onto the wire contract: every failure
// is `{"error": message}` with the status derived from the error kind.
func (h *Handler) respondError(c *gin.Context, moduleName string, funcName string, err error) {
	status := utils.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		config.LogError(h.Logger, moduleName, funcName, "request failed", nil, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handler) respondBindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": utils.ProcessValidationErrors(err),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// pathId parses the numeric :id path param.
func pathId(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, utils.Invalid("invalid id")
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
