package admin

import (
	"github.com/b2b-portale/internal/http/response"

	"github.com/gin-gonic/gin"
)

type authzRolePayload struct {
	Role string `json:"role" binding:"required"`
}

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type authzSetUserRolesPayload struct {
	Roles []string `json:"roles"`
}

// GetAuthzMe 获取当前用户权限快照
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	roles, err := h.AuthzService.GetUserRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	policies, err := h.AuthzService.GetUserPolicies(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, gin.H{
		"user_id":  adminID,
		"role":     c.GetString("user_role"),
		"roles":    roles,
		"policies": policies,
	})
}

// ListAuthzRoles 获取角色列表
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, roles)
}

// CreateAuthzRole 创建角色
func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req authzRolePayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	requestLog(c).Infow("admin_authz_role_created",
		"operator_id", c.GetUint("user_id"),
		"role", role,
	)
	response.Success(c, gin.H{"role": role})
}

// DeleteAuthzRole 删除角色
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role := c.Param("role")
	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	requestLog(c).Infow("admin_authz_role_deleted",
		"operator_id", c.GetUint("user_id"),
		"role", role,
	)
	response.Success(c, gin.H{"deleted": true})
}

// GetAuthzRolePolicies 获取角色策略列表
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	policies, err := h.AuthzService.GetRolePolicies(c.Param("role"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 为角色授予策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	requestLog(c).Infow("admin_authz_policy_granted",
		"operator_id", c.GetUint("user_id"),
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)
	response.Success(c, gin.H{"granted": true})
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	requestLog(c).Infow("admin_authz_policy_revoked",
		"operator_id", c.GetUint("user_id"),
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)
	response.Success(c, gin.H{"revoked": true})
}

// GetAuthzUserRoles 获取指定用户的角色
func (h *Handler) GetAuthzUserRoles(c *gin.Context) {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	roles, rolesErr := h.AuthzService.GetUserRoles(userID)
	if rolesErr != nil {
		respondError(c, response.CodeInternal, "error.internal", rolesErr)
		return
	}
	response.Success(c, gin.H{"user_id": userID, "roles": roles})
}

// SetAuthzUserRoles 覆盖设置指定用户的角色
func (h *Handler) SetAuthzUserRoles(c *gin.Context) {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	var req authzSetUserRolesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.AuthzService.SetUserRoles(userID, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	requestLog(c).Infow("admin_authz_user_roles_set",
		"operator_id", c.GetUint("user_id"),
		"user_id", userID,
		"roles", req.Roles,
	)
	response.Success(c, gin.H{"user_id": userID, "roles": req.Roles})
}
