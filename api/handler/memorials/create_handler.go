package memorials

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anoixa/mozaiek/api/common"
	"github.com/anoixa/mozaiek/api/middleware"
	"github.com/anoixa/mozaiek/database/models"
	"github.com/anoixa/mozaiek/internal/memorial"
	"github.com/gin-gonic/gin"
)

// createMemorialResponse 创建结果, 不含密码哈希
type createMemorialResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	IsPublic     bool                `json:"is_public"`
	HasPassword  bool                `json:"has_password"`
	BaseImageURL string              `json:"base_image_url"`
	ColorSummary models.ColorSummary `json:"color_summary"`
	CreatedAt    time.Time           `json:"created_at"`
}

// CreateMemorial 创建纪念馆
// @Summary      Create memorial
// @Description  Upload a base photo and create a memorial owned by the caller
// @Tags         memorials
// @Accept       multipart/form-data
// @Produce      json
// @Param        photo        formData  file    true   "Base photo"
// @Param        name         formData  string  true   "Name (max 100 characters)"
// @Param        description  formData  string  false  "Description (max 2000 characters)"
// @Param        isPublic     formData  bool    false  "Visible without password"
// @Param        password     formData  string  false  "Access password for private memorials"
// @Success      201  {object}  common.Response  "Memorial created"
// @Failure      400  {object}  common.Response  "Invalid input"
// @Failure      401  {object}  common.Response  "Unauthorized"
// @Failure      422  {object}  common.Response  "Photo could not be processed"
// @Failure      502  {object}  common.Response  "Storage failure"
// @Security     BearerAuth
// @Router       /memorials [post]
func (h *Handler) CreateMemorial(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		common.RespondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	isPublic, err := parseBool(c.PostForm("isPublic"))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "isPublic must be a boolean")
		return
	}

	photo, err := common.ReadPhoto(c, "photo", h.maxUpload)
	if err != nil {
		common.RespondPhotoError(c, err)
		return
	}

	m, err := h.svc.CreateMemorial(c.Request.Context(), userID, memorial.CreateMemorialInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		IsPublic:    isPublic,
		Password:    c.PostForm("password"),
	}, photo)
	if err != nil {
		common.RespondServiceError(c, err)
		return
	}

	common.RespondCreated(c, createMemorialResponse{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		IsPublic:     m.IsPublic,
		HasPassword:  m.HasPassword(),
		BaseImageURL: m.BaseImageURL,
		ColorSummary: m.ColorSummary,
		CreatedAt:    m.CreatedAt,
	})
}

// parseBool 空值视为 false
func parseBool(v string) (bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
