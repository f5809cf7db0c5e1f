package memorials

import (
	"github.com/anoixa/mozaiek/internal/memorial"
)

// PasswordHeader 访客提交访问密码的请求头
const PasswordHeader = "X-Password"

// Handler 纪念馆处理器
type Handler struct {
	svc       *memorial.Service
	maxUpload int64
}

// NewHandler 创建新的纪念馆处理器
func NewHandler(svc *memorial.Service, maxUpload int64) *Handler {
	return &Handler{
		svc:       svc,
		maxUpload: maxUpload,
	}
}
