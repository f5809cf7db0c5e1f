package memories

import (
	"github.com/anoixa/mozaiek/api/common"
	"github.com/anoixa/mozaiek/internal/memorial"
	"github.com/gin-gonic/gin"
)

// AddMemory 访客为纪念馆留下一张照片和一段留言
// @Summary      Add memory
// @Tags         memories
// @Accept       multipart/form-data
// @Produce      json
// @Param        id           path      string  true   "Memorial ID"
// @Param        X-Password   header    string  false  "Access password"
// @Param        photo        formData  file    true   "Memory photo"
// @Param        visitorName  formData  string  true   "Visitor name (max 100 characters)"
// @Param        message      formData  string  true   "Message (max 2000 characters)"
// @Success      201  {object}  common.Response  "Memory added"
// @Failure      400  {object}  common.Response  "Invalid input"
// @Failure      401  {object}  common.Response  "Locked"
// @Failure      404  {object}  common.Response  "Memorial not found"
// @Failure      422  {object}  common.Response  "Photo could not be processed"
// @Failure      502  {object}  common.Response  "Storage failure"
// @Router       /memorials/{id}/memories [post]
func (h *Handler) AddMemory(c *gin.Context) {
	photo, err := common.ReadPhoto(c, "photo", h.maxUpload)
	if err != nil {
		common.RespondPhotoError(c, err)
		return
	}

	memory, err := h.svc.AddMemory(c.Request.Context(), c.Param("id"), c.GetHeader(PasswordHeader), memorial.AddMemoryInput{
		VisitorName: c.PostForm("visitorName"),
		Message:     c.PostForm("message"),
	}, photo)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.RespondCreated(c, memory)
}
