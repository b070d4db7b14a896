package admin

import (
	"errors"

	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"
	"github.com/sharperly/logistics-api/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateUserStatusRequest 启用或停用用户请求
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required" msg:"isActive must be a boolean"`
}

// GetAdminUsers 获取用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, pageSize := handlershared.NormalizePagination(
		handlershared.QueryInt(c, "page", 1),
		handlershared.QueryInt(c, "limit", 10),
	)
	users, total, err := h.UserService.ListUsers(service.UserListInput{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search"),
		Role:     c.Query("role"),
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while fetching users", err)
		return
	}
	pagination := service.NewPagination(page, pageSize, total, len(users))
	response.Success(c, gin.H{
		"users":      users,
		"pagination": handlershared.PaginationPayload(pagination, "totalUsers"),
	})
}

// GetAdminUser 获取用户详情及企业信息
func (h *Handler) GetAdminUser(c *gin.Context) {
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}
	user, business, err := h.UserService.GetUserDetail(userID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "User not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "Server error while fetching user", err)
		return
	}
	payload := gin.H{"user": user, "business": nil}
	if business != nil {
		payload["business"] = business
	}
	response.Success(c, payload)
}

// UpdateAdminUserStatus 启用或停用用户
func (h *Handler) UpdateAdminUserStatus(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	userID, ok := parseUserIDParam(c)
	if !ok {
		return
	}
	var req UpdateUserStatusRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	if userID == operatorID && !*req.IsActive {
		respondError(c, response.CodeBadRequest, "You cannot deactivate your own account", nil)
		return
	}

	user, err := h.UserService.UpdateUserStatus(userID, *req.IsActive)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "User not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "Server error while updating user status", err)
		return
	}

	audit(c, "admin_user_status_updated", "target_user_id", userID, "is_active", user.IsActive)

	msg := "User deactivated successfully"
	if user.IsActive {
		msg = "User activated successfully"
	}
	response.Success(c, gin.H{
		"message": msg,
		"user":    user,
	})
}
