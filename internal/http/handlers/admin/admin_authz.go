package admin

import (
	"errors"
	"net/url"
	"strings"

	"github.com/sharperly/logistics-api/internal/authz"
	handlershared "github.com/sharperly/logistics-api/internal/http/handlers/shared"
	"github.com/sharperly/logistics-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required" msg:"Role is required"`
	Object string `json:"object" binding:"required" msg:"Object is required"`
	Action string `json:"action" binding:"required" msg:"Action is required"`
}

// ListAuthzRoles 角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "Server error while fetching roles", err)
		return
	}
	items := make([]gin.H, 0, len(roles))
	for _, role := range roles {
		items = append(items, gin.H{
			"role":      role,
			"immutable": authz.IsImmutableRole(role),
		})
	}
	response.Success(c, gin.H{"roles": items})
}

// GetAuthzRolePolicies 角色策略，implicit=true 时包含继承策略
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "Role is required", nil)
		return
	}
	var (
		policies []authz.Policy
		err      error
	)
	if implicit := handlershared.QueryBool(c, "implicit"); implicit != nil && *implicit {
		policies, err = h.AuthzService.GetImplicitRolePolicies(role)
	} else {
		policies, err = h.AuthzService.GetRolePolicies(role)
	}
	if err != nil {
		respondError(c, response.CodeBadRequest, "Invalid role", err)
		return
	}
	response.Success(c, gin.H{"role": role, "policies": policies})
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if !handlershared.BindJSON(c, &req) {
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "Unable to grant policy", err)
		return
	}
	audit(c, "admin_authz_policy_granted", "role", req.Role, "object", req.Object, "action", req.Action)
	response.SuccessWithMsg(c, "Policy granted successfully")
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if !handlershared.BindJSON(c, &req) {
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "Unable to revoke policy", err)
		return
	}
	audit(c, "admin_authz_policy_revoked", "role", req.Role, "object", req.Object, "action", req.Action)
	response.SuccessWithMsg(c, "Policy revoked successfully")
}

// DeleteAuthzRole 删除自定义角色
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if role == "" {
		respondError(c, response.CodeBadRequest, "Role is required", nil)
		return
	}
	if err := h.AuthzService.DeleteRole(role); err != nil {
		if errors.Is(err, authz.ErrImmutableRole) {
			respondError(c, response.CodeBadRequest, "Built-in roles cannot be deleted", nil)
			return
		}
		respondError(c, response.CodeBadRequest, "Unable to delete role", err)
		return
	}
	audit(c, "admin_authz_role_deleted", "role", role)
	response.SuccessWithMsg(c, "Role deleted successfully")
}

func decodeRoleParam(value string) string {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(decoded)
}
