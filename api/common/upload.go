package common

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/anoixa/mozaiek/internal/imaging"
	"github.com/gin-gonic/gin"
)

var (
	// ErrPhotoMissing 表单中缺少照片
	ErrPhotoMissing = errors.New("photo is required")
	// ErrBodyTooLarge 请求体超过上限
	ErrBodyTooLarge = errors.New("request body too large")
)

// ReadPhoto 读取表单中的照片, 最多读取 maxBytes+1 字节, 超限交由校验拒绝
func ReadPhoto(c *gin.Context, field string, maxBytes int64) (imaging.Upload, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return imaging.Upload{}, ErrBodyTooLarge
		}
		return imaging.Upload{}, ErrPhotoMissing
	}

	file, err := fileHeader.Open()
	if err != nil {
		return imaging.Upload{}, fmt.Errorf("open photo: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if maxBytes > 0 {
		reader = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return imaging.Upload{}, fmt.Errorf("read photo: %w", err)
	}

	return imaging.Upload{
		Data:        data,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Filename:    fileHeader.Filename,
	}, nil
}

// RespondPhotoError 照片读取失败时的响应
func RespondPhotoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		RespondError(c, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, ErrPhotoMissing):
		RespondError(c, http.StatusBadRequest, "A photo is required under the 'photo' key")
	default:
		RespondError(c, http.StatusBadRequest, "Invalid form data")
	}
}
