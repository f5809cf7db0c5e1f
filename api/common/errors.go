package common

import (
	"errors"
	"log"
	"net/http"

	"github.com/anoixa/mozaiek/internal/memorial"
	"github.com/anoixa/mozaiek/utils"
	"github.com/gin-gonic/gin"
)

// LockedPayload 锁定纪念馆返回的内容, 不含任何纪念馆数据
type LockedPayload struct {
	Locked bool   `json:"locked"`
	Reason string `json:"reason"`
}

// StatusFor 把服务层错误映射为 HTTP 状态码
func StatusFor(err error) int {
	switch memorial.KindOf(err) {
	case memorial.InvalidInput:
		return http.StatusBadRequest
	case memorial.NotFound:
		return http.StatusNotFound
	case memorial.Unauthorized:
		if errors.Is(err, memorial.ErrNotOwner) {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case memorial.StorageFailure:
		return http.StatusBadGateway
	case memorial.ProcessingFailure:
		return http.StatusUnprocessableEntity
	default:
		if utils.IsContextCanceled(err) {
			return http.StatusRequestTimeout
		}
		return http.StatusInternalServerError
	}
}

// RespondServiceError 按错误类型输出响应, 内部错误不向客户端暴露细节
func RespondServiceError(c *gin.Context, err error) {
	status := StatusFor(err)

	var locked *memorial.LockedError
	if errors.As(err, &locked) {
		RespondErrorData(c, status, "memorial is locked", LockedPayload{Locked: true, Reason: locked.Reason.String()})
		return
	}

	var e *memorial.Error
	switch {
	case status >= http.StatusInternalServerError && status != http.StatusBadGateway:
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		RespondError(c, status, "internal server error")
	case status == http.StatusBadGateway:
		log.Printf("[API] %s %s storage failure: %v", c.Request.Method, c.FullPath(), err)
		RespondError(c, status, "storage unavailable, please try again later")
	case errors.As(err, &e) && e.Msg != "":
		msg := e.Msg
		if status == http.StatusBadRequest && e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		RespondError(c, status, msg)
	default:
		RespondError(c, status, http.StatusText(status))
	}
}
