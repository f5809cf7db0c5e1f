package memorials

import (
	"net/http"

	"github.com/anoixa/mozaiek/api/common"
	"github.com/gin-gonic/gin"
)

// GetMemorial 读取纪念馆, 私密纪念馆需要 X-Password
// @Summary      Get memorial
// @Description  Returns the memorial with its memories and reveal ratio. Locked memorials return only the locked marker.
// @Tags         memorials
// @Produce      json
// @Param        id          path    string  true   "Memorial ID"
// @Param        X-Password  header  string  false  "Access password"
// @Success      200  {object}  common.Response  "Memorial"
// @Failure      401  {object}  common.Response  "Locked"
// @Failure      404  {object}  common.Response  "Not found"
// @Router       /memorials/{id} [get]
func (h *Handler) GetMemorial(c *gin.Context) {
	result, err := h.svc.FetchMemorial(c.Request.Context(), c.Param("id"), c.GetHeader(PasswordHeader))
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	if result.Locked() {
		common.RespondErrorData(c, http.StatusUnauthorized, "memorial is locked", common.LockedPayload{
			Locked: true,
			Reason: result.Decision.Reason.String(),
		})
		return
	}

	common.RespondSuccess(c, result.View)
}
