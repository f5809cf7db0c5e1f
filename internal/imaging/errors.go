package imaging

import "errors"

var (
	// ErrInvalidUpload 上传未通过校验 (大小或类型)
	ErrInvalidUpload = errors.New("invalid image upload")
	// ErrProcessingFailed 解码或编码失败
	ErrProcessingFailed = errors.New("image processing failed")
	// ErrStorageFailed 写入对象存储失败
	ErrStorageFailed = errors.New("image storage failed")
)
