package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrEmptyUpload  = errors.New("upload is empty")
	ErrUploadTooBig = errors.New("upload exceeds the size limit")
	ErrNotAnImage   = errors.New("upload is not an image")
	ErrDeclaredType = errors.New("declared content type is not an image")
)

// MaxImageBytes 单张图片上限 10 MiB
const MaxImageBytes int64 = 10 << 20

// DetectImage 嗅探内容类型, 返回是否为图片及 MIME
func DetectImage(data []byte) (bool, string) {
	mtype := mimetype.Detect(data)
	mime := mtype.String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.HasPrefix(mime, "image/"), mime
}

// CheckImageUpload 在解码前校验上传
// declared 为客户端声明的类型, 为空或 application/octet-stream 时只看嗅探结果
func CheckImageUpload(declared string, data []byte, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = MaxImageBytes
	}
	if len(data) == 0 {
		return "", ErrEmptyUpload
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: %d > %d bytes", ErrUploadTooBig, len(data), maxBytes)
	}

	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if declared != "" && declared != "application/octet-stream" && !strings.HasPrefix(declared, "image/") {
		return "", fmt.Errorf("%w: %s", ErrDeclaredType, declared)
	}

	ok, sniffed := DetectImage(data)
	if !ok {
		return "", fmt.Errorf("%w: detected %s", ErrNotAnImage, sniffed)
	}
	return sniffed, nil
}
