package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Skryldev/edu-platform/db"
	"github.com/Skryldev/edu-platform/middleware"
	"github.com/Skryldev/edu-platform/models"
	"github.com/Skryldev/edu-platform/repo"
	"github.com/gin-gonic/gin"
)

// TxRunner opens one scoped transaction per call. *db.DB implements it.
type TxRunner interface {
	ExecTx(ctx context.Context, fn func(*db.Tx) error, opts ...db.TxOptions) error
}

// UserHandler serves the user registration route.
type UserHandler struct {
	sessions TxRunner
	logger   *slog.Logger
}

// NewUserHandler returns a handler that takes one session from sessions per request.
func NewUserHandler(sessions TxRunner, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{sessions: sessions, logger: logger}
}

// CreateUser handles POST /user/.
func (h *UserHandler) CreateUser(c *gin.Context) {
	body, err := bindUserCreate(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	// A client that goes away does not abort the insert.
	ctx := context.WithoutCancel(c.Request.Context())

	user, err := h.createNewUser(ctx, body)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// createNewUser stores a validated body inside one transaction and returns
// the stored representation. The transaction commits only if Create succeeds.
func (h *UserHandler) createNewUser(ctx context.Context, body models.UserCreate) (models.ShowUser, error) {
	var out models.ShowUser
	err := h.sessions.ExecTx(ctx, func(tx *db.Tx) error {
		user, err := repo.NewUserRepo(tx).Create(ctx, body.Params())
		if err != nil {
			return err
		}
		out = models.NewShowUser(user)
		return nil
	})
	return out, err
}

// bindUserCreate decodes the JSON body and validates it. Both failure kinds
// come back as *models.ValidationError.
func bindUserCreate(c *gin.Context) (models.UserCreate, error) {
	var body models.UserCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		return body, &models.ValidationError{Field: "body", Message: "Request body must be a JSON object with name, surname and email"}
	}
	if err := body.Validate(); err != nil {
		return body, err
	}
	return body, nil
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	log := h.logger.With("request_id", middleware.RequestIDFromContext(c))

	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		log.Debug("user rejected", "field", ve.Field, "reason", ve.Message)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": ve.Message})
	case db.IsConnectionFailed(err):
		log.Error("session was not received", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
	default:
		log.Error("create user failed", "error", err, "constraint", db.IsConstraintViolation(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
	}
}
