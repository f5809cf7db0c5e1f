package utils

import (
	"context"
	"errors"
)

// IsContextCanceled 检查错误是否是由于上下文取消或超时导致的
func IsContextCanceled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
