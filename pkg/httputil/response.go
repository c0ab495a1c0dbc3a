package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medrecords-api/pkg/errors"
)

// ErrorResponse is the uniform failure body of the record and profile routes.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusFor maps an application error code to its HTTP status. Validation
// failures answer 404, which is what existing clients of this API expect.
func StatusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrValidation, errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError converts err into {success:false,message} with the
// status derived from its code. Upstream and unknown errors are logged with
// their cause and reported to the client with fallback.
func RespondWithError(c *gin.Context, err error, fallback string) {
	code := errors.CodeOf(err)
	status := StatusFor(code)

	message := fallback
	switch code {
	case errors.ErrValidation, errors.ErrNotFound, errors.ErrUnauthorized:
		message = messageOf(err)
	case errors.ErrUpstream:
		if m := messageOf(err); m != "" {
			message = m
		}
	}

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetString("request_id")).
			Msg(fallback)
	}

	c.JSON(status, ErrorResponse{Success: false, Message: message})
}

// RespondWithFailure writes a bare {success:false,message} body.
func RespondWithFailure(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Success: false, Message: message})
}

func messageOf(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// ErrorBody is the failure body of the multipart upload routes.
type ErrorBody struct {
	Error string `json:"error"`
}

// RespondWithFormError answers upload routes: validation failures are 400
// with their message, everything else is 500 with fallback.
func RespondWithFormError(c *gin.Context, err error, fallback string) {
	if errors.IsValidation(err) {
		c.JSON(http.StatusBadRequest, ErrorBody{Error: messageOf(err)})
		return
	}

	log.Error().
		Err(err).
		Str("path", c.Request.URL.Path).
		Str("request_id", c.GetString("request_id")).
		Msg(fallback)
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: fallback})
}
