package handlers

import (
	"errors"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
	"github.com/yukikurage/taskflow-api/internal/services"
)

// respondError maps a service error onto the API error envelope. Anything
// unrecognised is logged and reported as a 500 without detail.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	var verr *apierrors.ValidationError
	switch {
	case errors.As(err, &verr):
		apierrors.Unprocessable(c, verr)
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, "")
	case errors.Is(err, services.ErrInactiveUser):
		apierrors.InvalidCredentials(c, "Inactive user")
	case errors.Is(err, services.ErrUnauthenticated):
		apierrors.Unauthorized(c, "Could not validate credentials")
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.Unprocessable(c, apierrors.NewValidationError("text", err.Error()))
	default:
		log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		apierrors.InternalError(c, "")
	}
}

// respondBindError reports a body that failed to decode or validate.
func respondBindError(c *gin.Context, err error) {
	if errors.Is(err, io.EOF) {
		apierrors.Unprocessable(c, apierrors.NewValidationError("body", "field required"))
		return
	}
	apierrors.Unprocessable(c, apierrors.FromBindingError(err))
}

// requireNotNull rejects an explicit null for a field that cannot be cleared.
func requireNotNull(verr *apierrors.ValidationError, field string, isNull bool) {
	if isNull {
		verr.Add(field, "may not be null")
	}
}
