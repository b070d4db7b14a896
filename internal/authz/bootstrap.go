package authz

import (
	"fmt"

	"github.com/sharperly/logistics-api/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

const accountRole = "account"

// BuiltinRoleSeeds 系统预置角色矩阵，account 为登录用户的公共能力
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: accountRole,
			Policies: []Policy{
				{Object: "/auth/me", Action: "GET"},
				{Object: "/auth/update-password", Action: "PUT"},
				{Object: "/auth/resend-verification", Action: "POST"},
				{Object: "/users/profile", Action: "*"},
				{Object: "/users/profile-image", Action: "PUT"},
				{Object: "/users/account", Action: "DELETE"},
			},
			Immutable: true,
		},
		{
			Role:     constants.RoleDriver,
			Inherits: []string{accountRole},
			Policies: []Policy{
				{Object: "/shipments", Action: "GET"},
				{Object: "/shipments/:id", Action: "GET"},
				{Object: "/shipments/:id/status", Action: "PATCH"},
			},
			Immutable: true,
		},
		{
			Role:     constants.RoleUser,
			Inherits: []string{accountRole},
			Policies: []Policy{
				{Object: "/users/skip-corporate-info", Action: "PUT"},
				{Object: "/business/*", Action: "*"},
				{Object: "/dashboard/*", Action: "GET"},
				{Object: "/orders", Action: "*"},
				{Object: "/orders/*", Action: "*"},
				{Object: "/shipments", Action: "GET"},
				{Object: "/shipments/*", Action: "*"},
				{Object: "/drivers", Action: "*"},
				{Object: "/drivers/*", Action: "*"},
			},
			Immutable: true,
		},
		{
			Role:     constants.RoleAdmin,
			Inherits: []string{constants.RoleUser},
			Policies: []Policy{
				{Object: "/users", Action: "GET"},
				{Object: "/users/:id", Action: "GET"},
				{Object: "/users/:id/status", Action: "PUT"},
				{Object: "/admin/*", Action: "*"},
			},
			Immutable: true,
		},
	}
}

// IsImmutableRole 是否为不可删除的预置角色
func IsImmutableRole(role string) bool {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return false
	}
	for _, seed := range BuiltinRoleSeeds() {
		seedRole, err := NormalizeRole(seed.Role)
		if err == nil && seedRole == normalized && seed.Immutable {
			return true
		}
	}
	return false
}

// BootstrapBuiltinRoles 初始化预置角色、继承关系与默认策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.ensureRole(seed.Role)
		if err != nil {
			return fmt.Errorf("create builtin role %s failed: %w", seed.Role, err)
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, item := range seed.Policies {
			policy, err := newPolicy(role, item.Object, item.Action)
			if err != nil {
				return fmt.Errorf("builtin policy for %s: %w", seed.Role, err)
			}
			if _, err := s.enforcer.AddPolicy(policy.Subject, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
