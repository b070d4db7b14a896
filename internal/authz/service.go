package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiPrefix       = "/api"
	casbinTableName = "casbin_rule"
	rolePrefix      = "role:"
	roleAnchor      = "role:__anchor__"
)

var (
	// ErrImmutableRole 预置角色不允许删除
	ErrImmutableRole = errors.New("builtin role is immutable")
	errUnavailable   = errors.New("authz service unavailable")
	errReservedRole  = errors.New("reserved role is not allowed")
)

const defaultRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service Casbin 授权服务，策略经 gorm-adapter 自动落库
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(defaultRBACModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return errUnavailable
	}
	return nil
}

// Enforce 执行授权判断
func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(strings.TrimSpace(sub), NormalizeObject(obj), NormalizeAction(act))
}

// EnforceRole 按用户角色判定授权
func (s *Service) EnforceRole(role, obj, act string) (bool, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return false, err
	}
	return s.Enforce(subject, obj, act)
}

// ensureRole 角色以挂到锚点的分组记录表示存在
func (s *Service) ensureRole(role string) (string, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if normalized == roleAnchor {
		return "", errReservedRole
	}
	if err := s.ready(); err != nil {
		return "", err
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", normalized, roleAnchor); err != nil {
		return "", fmt.Errorf("create role failed: %w", err)
	}
	return normalized, nil
}

// ListRoles 列出全部已登记角色
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 1, roleAnchor)
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) > 0 && strings.HasPrefix(rule[0], rolePrefix) {
			roles = append(roles, rule[0])
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// DeleteRole 删除角色及其策略与继承关系
func (s *Service) DeleteRole(role string) error {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return err
	}
	if normalized == roleAnchor {
		return errReservedRole
	}
	if IsImmutableRole(normalized) {
		return ErrImmutableRole
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.RemoveFilteredPolicy(0, normalized); err != nil {
		return fmt.Errorf("remove role policy failed: %w", err)
	}
	for _, field := range []int{0, 1} {
		if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", field, normalized); err != nil {
			return fmt.Errorf("remove role link failed: %w", err)
		}
	}
	return nil
}

// GrantRolePolicy 为角色授予策略，角色不存在时自动创建
func (s *Service) GrantRolePolicy(role, object, action string) error {
	normalizedRole, err := s.ensureRole(role)
	if err != nil {
		return err
	}
	policy, err := newPolicy(normalizedRole, object, action)
	if err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色策略
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	normalizedRole, err := NormalizeRole(role)
	if err != nil {
		return err
	}
	policy, err := newPolicy(normalizedRole, object, action)
	if err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("revoke policy failed: %w", err)
	}
	return nil
}

// GetRolePolicies 查询角色直接持有的策略
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	normalizedRole, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, normalizedRole)
	if err != nil {
		return nil, fmt.Errorf("get role policies failed: %w", err)
	}
	return toPolicies(rules), nil
}

// GetImplicitRolePolicies 查询角色生效策略（含继承）
func (s *Service) GetImplicitRolePolicies(role string) ([]Policy, error) {
	normalizedRole, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetImplicitPermissionsForUser(normalizedRole)
	if err != nil {
		return nil, fmt.Errorf("get implicit policies failed: %w", err)
	}
	return toPolicies(rules), nil
}

func newPolicy(role, object, action string) (Policy, error) {
	normalizedAction := NormalizeAction(action)
	if normalizedAction == "" {
		return Policy{}, fmt.Errorf("action is required")
	}
	return Policy{Subject: role, Object: NormalizeObject(object), Action: normalizedAction}, nil
}

// toPolicies 转换并去重排序
func toPolicies(rules [][]string) []Policy {
	seen := make(map[Policy]struct{}, len(rules))
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if len(rule) < 3 {
			continue
		}
		policy := Policy{
			Subject: strings.TrimSpace(rule[0]),
			Object:  NormalizeObject(rule[1]),
			Action:  NormalizeAction(rule[2]),
		}
		if _, dup := seen[policy]; dup {
			continue
		}
		seen[policy] = struct{}{}
		policies = append(policies, policy)
	}
	sort.Slice(policies, func(i, j int) bool {
		a, b := policies[i], policies[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Object != b.Object {
			return a.Object < b.Object
		}
		return a.Action < b.Action
	})
	return policies
}

// NormalizeRole 统一角色名称为 role:<name>
func NormalizeRole(role string) (string, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(role)), " ", "_")
	normalized = strings.TrimPrefix(normalized, rolePrefix)
	if normalized == "" {
		return "", fmt.Errorf("role is required")
	}
	return rolePrefix + normalized, nil
}

// NormalizeObject 统一授权资源路径，去掉 /api 前缀
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiPrefix {
		return "/"
	}
	if rest, ok := strings.CutPrefix(normalized, apiPrefix+"/"); ok {
		return "/" + rest
	}
	return normalized
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
