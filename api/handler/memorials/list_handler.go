package memorials

import (
	"net/http"

	"github.com/anoixa/mozaiek/api/common"
	"github.com/anoixa/mozaiek/api/middleware"
	"github.com/gin-gonic/gin"
)

// ListMyMemorials 当前所有者的纪念馆, 按创建时间倒序
// @Summary      List own memorials
// @Tags         memorials
// @Produce      json
// @Success      200  {object}  common.Response  "Memorials, newest first"
// @Failure      401  {object}  common.Response  "Unauthorized"
// @Security     BearerAuth
// @Router       /user/memorials [get]
func (h *Handler) ListMyMemorials(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	list, err := h.svc.ListOwnerMemorials(c.Request.Context(), userID)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.RespondSuccess(c, gin.H{
		"memorials": list,
		"total":     len(list),
	})
}
