package memories

import (
	"github.com/anoixa/mozaiek/api/common"
	"github.com/anoixa/mozaiek/api/middleware"
	"github.com/gin-gonic/gin"
)

// DeleteMemory 纪念馆所有者删除一条回忆
// @Summary      Delete memory
// @Tags         memories
// @Produce      json
// @Param        id  path  string  true  "Memory ID"
// @Success      200  {object}  common.Response  "Deleted"
// @Failure      401  {object}  common.Response  "Unauthorized"
// @Failure      403  {object}  common.Response  "Not the memorial owner"
// @Failure      404  {object}  common.Response  "Not found"
// @Security     BearerAuth
// @Router       /memories/{id} [delete]
func (h *Handler) DeleteMemory(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	id := c.Param("id")

	ownerID, err := h.svc.MemoryOwner(c.Request.Context(), id)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	if err := h.svc.DeleteMemory(c.Request.Context(), id, userID != 0 && ownerID == userID); err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Memory deleted", gin.H{"id": id})
}
