package memorials

import (
	"github.com/anoixa/mozaiek/api/common"
	"github.com/anoixa/mozaiek/api/middleware"
	"github.com/gin-gonic/gin"
)

// DeleteMemorial 删除纪念馆及其全部回忆, 仅所有者可操作
// @Summary      Delete memorial
// @Tags         memorials
// @Produce      json
// @Param        id  path  string  true  "Memorial ID"
// @Success      200  {object}  common.Response  "Deleted"
// @Failure      401  {object}  common.Response  "Unauthorized"
// @Failure      403  {object}  common.Response  "Not the owner"
// @Failure      404  {object}  common.Response  "Not found"
// @Security     BearerAuth
// @Router       /memorials/{id} [delete]
func (h *Handler) DeleteMemorial(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")

	ownerID, err := h.svc.MemorialOwner(c.Request.Context(), id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	if err := h.svc.DeleteMemorial(c.Request.Context(), id, userID != 0 && ownerID == userID); err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Memorial deleted", gin.H{"id": id})
}
