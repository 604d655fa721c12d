package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"codeapt/internal/api/middleware"
	"codeapt/internal/common"
	"codeapt/internal/common/validation"
	"codeapt/internal/platform/logger"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// decodeJSON decodes the body into dst and validates it. On failure it has
// already written the response.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := validation.Struct(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// respondError maps err to a status. Unexpected errors are logged and their
// text is not sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatusFromError(err)
	if status == http.StatusInternalServerError && !errors.Is(err, common.ErrInternalServer) {
		logger.Log.WithError(err).WithField("request_id", chiMiddleware.GetReqID(r.Context())).Error("unhandled error")
		common.RespondWithError(w, status, common.ErrInternalServer.Error())
		return
	}
	common.RespondWithError(w, status, err.Error())
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || id == "" {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return "", false
	}
	return id, true
}
