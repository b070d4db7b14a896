package public

import (
	"github.com/sharperly/logistics-api/internal/constants"
	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateProfileRequest 资料更新请求
type UpdateProfileRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,min=2,max=100" msg:"Full name must be between 2 and 100 characters"`
	Email    *string `json:"email" binding:"omitempty,email" msg:"Please enter a valid email address"`
	About    *string `json:"about" binding:"omitempty,max=500" msg:"About section cannot exceed 500 characters"`
}

// GetProfile 获取个人资料与企业信息
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, business, err := h.UserService.GetProfile(userID)
	if err != nil {
		respondWithMappedError(c, err, userNotFoundRules, response.CodeInternal, "Server error while fetching profile")
		return
	}
	payload := gin.H{"user": userDetailPayload(user), "business": nil}
	if business != nil {
		payload["business"] = business
	}
	response.Success(c, payload)
}

// UpdateProfile 更新个人资料
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	user, err := h.UserService.UpdateProfile(userID, service.ProfileUpdateInput{
		FullName: req.FullName,
		Email:    req.Email,
		About:    req.About,
	})
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "Server error while updating profile")
		return
	}
	response.Success(c, gin.H{
		"message": "Profile updated successfully",
		"user":    userDetailPayload(user),
	})
}

// UpdateProfileImage 上传头像
func (h *Handler) UpdateProfileImage(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	file, err := c.FormFile("profileImage")
	if err != nil {
		respondError(c, response.CodeBadRequest, "Please upload an image file", nil)
		return
	}
	url, err := h.UploadService.SaveFile(file, constants.UploadSceneProfileImage)
	if err != nil {
		respondWithMappedError(c, err, nil, response.CodeInternal, "Server error while uploading image")
		return
	}
	user, err := h.UserService.UpdateProfileImage(userID, url)
	if err != nil {
		respondWithMappedError(c, err, userNotFoundRules, response.CodeInternal, "Server error while uploading image")
		return
	}
	response.Success(c, gin.H{
		"message":      "Profile image updated successfully",
		"profileImage": user.ProfileImage,
	})
}

// SkipCorporateInfo 跳过企业信息填写
func (h *Handler) SkipCorporateInfo(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserService.SkipCorporateInfo(userID)
	if err != nil {
		respondWithMappedError(c, err, userNotFoundRules, response.CodeInternal, "Server error while skipping corporate info")
		return
	}
	response.Success(c, gin.H{
		"message":              "Corporate info skipped successfully",
		"skippedCorporateInfo": user.SkippedCorporateInfo,
	})
}

// DeleteAccount 注销账号及其企业数据
func (h *Handler) DeleteAccount(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.UserService.DeleteAccount(userID); err != nil {
		respondWithMappedError(c, err, userNotFoundRules, response.CodeInternal, "Server error while deleting account")
		return
	}
	response.SuccessWithMsg(c, "Account deleted successfully")
}
