package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/pkg/errors"
)

// Registrar is implemented by every route group handler.
type Registrar interface {
	RegisterRoutes(*gin.RouterGroup)
}

// BindError turns a gin binding failure into a validation error.
func BindError(err error) error {
	return errors.NewValidation("Invalid request body", err)
}

// FormUpload opens the multipart file under field. A missing field yields
// (nil, nil, nil) so the service can report it with its own message. The
// returned close func must be called once the upload has been consumed.
func FormUpload(c *gin.Context, field string) (*model.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if stderrors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, errors.NewValidation("Invalid multipart form", err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, errors.NewInternal(err)
	}

	upload := &model.Upload{
		Reader:      f,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
	return upload, func() { _ = f.Close() }, nil
}
