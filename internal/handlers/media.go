package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"koomia/api/internal/apperr"
	"koomia/api/internal/media/sniffer"
	"koomia/api/internal/service"
)

const maxImagesPerRequest = 10

// formUploads opens every file sent under field. The caller must run the
// returned closer once the uploads have been stored.
func formUploads(c *gin.Context, field string, limit int) ([]service.UploadInput, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, apperr.Wrap(apperr.BadRequest, "Expected a multipart form.", err)
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, func() {}, apperr.Newf(apperr.BadRequest, "%s file is required.", field)
	}
	if len(headers) > limit {
		return nil, func() {}, apperr.Newf(apperr.BadRequest, "At most %d files may be sent at once.", limit)
	}

	var files []io.Closer
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	uploads := make([]service.UploadInput, 0, len(headers))
	for _, header := range headers {
		file, err := openPart(header)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, file)
		uploads = append(uploads, service.UploadInput{
			File:         file,
			DeclaredType: sniffer.MimeTypeFromHTTP(http.Header(header.Header)),
		})
	}
	return uploads, closeAll, nil
}

func openPart(header *multipart.FileHeader) (multipart.File, error) {
	if header.Size > service.MaxUploadBytes {
		return nil, service.ErrFileTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.BadRequest, "Unreadable upload.", err)
	}
	return file, nil
}
