package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置角色矩阵
// admin/client/partner 是登录角色的兜底策略，其余为后台细分角色
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "admin",
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
			Immutable: true,
		},
		{
			Role: "client",
			Policies: []Policy{
				{Object: "/client/*", Action: "*"},
			},
			Immutable: true,
		},
		{
			Role: "partner",
			Policies: []Policy{
				{Object: "/partner/*", Action: "*"},
			},
			Immutable: true,
		},
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "operations",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/partners", Action: "*"},
				{Object: "/admin/partners/:id", Action: "*"},
				{Object: "/admin/partners/:id/category-commissions", Action: "*"},
				{Object: "/admin/products", Action: "GET"},
				{Object: "/admin/products/:id", Action: "GET"},
				{Object: "/admin/categories", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "support",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "PATCH"},
				{Object: "/admin/users", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/payouts", Action: "*"},
				{Object: "/admin/payouts/:id", Action: "*"},
				{Object: "/admin/payouts/:id/status", Action: "*"},
				{Object: "/admin/payouts/:id/items", Action: "GET"},
				{Object: "/admin/payouts/rebuild", Action: "POST"},
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/orders/:id/recalculate", Action: "POST"},
			},
			Immutable: true,
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("check builtin role failed: %w", err)
		}
		if !exists {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor); err != nil {
				return fmt.Errorf("create builtin role failed: %w", err)
			}
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

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}

	return nil
}
