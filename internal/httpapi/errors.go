package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/apperr"
	"github.com/tonyredondo/debugger-mcp-server-sub007/internal/obs"
)

// respondError translates a service-layer apperr.Error into the HTTP
// status codes and {error, errorCode} body shape from spec.md §6/§7.
// Only the tagged Message reaches the client; any wrapped cause (which may
// carry a filesystem path) is logged, never returned, per spec.md §7's
// propagation policy.
func respondError(c *gin.Context, logger obs.Logger, err error) {
	kind := apperr.KindOf(err)
	logger.Warn("request failed: %v", err)

	message := "internal server error"
	var tagged *apperr.Error
	if errors.As(err, &tagged) && kind != apperr.KindInternal {
		message = tagged.Message
	}
	c.JSON(statusForKind(kind), gin.H{"error": message, "errorCode": string(kind)})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindFormatInvalid:
		return http.StatusBadRequest
	case apperr.KindAuth:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperr.KindDebuggerTimeout, apperr.KindDebuggerDied, apperr.KindTransient, apperr.KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
