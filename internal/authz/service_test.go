package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceUserFallsBackToLoginRole(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	allow, err := svc.EnforceUser(7, "partner", "/api/v1/partner/items/12/status", "PATCH")
	if err != nil {
		t.Fatalf("enforce partner failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected partner route allowed for partner role")
	}

	allow, err = svc.EnforceUser(7, "partner", "/api/v1/admin/payouts", "GET")
	if err != nil {
		t.Fatalf("enforce cross role failed: %v", err)
	}
	if allow {
		t.Fatalf("expected admin route denied for partner role")
	}

	allow, err = svc.EnforceUser(1, "admin", "/api/v1/admin/payouts/3/status", "PATCH")
	if err != nil {
		t.Fatalf("enforce admin failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected admin route allowed for admin role")
	}
}

func TestEnforceUserWithAssignedRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.SetUserRoles(4, []string{"finance"}); err != nil {
		t.Fatalf("set user roles failed: %v", err)
	}

	allow, err := svc.EnforceUser(4, "admin", "/api/v1/admin/payouts/9/status", "PATCH")
	if err != nil {
		t.Fatalf("enforce finance payout failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected finance role to manage payouts")
	}

	allow, err = svc.EnforceUser(4, "admin", "/api/v1/admin/partners/2", "PATCH")
	if err != nil {
		t.Fatalf("enforce finance partner write failed: %v", err)
	}
	if allow {
		t.Fatalf("expected finance role denied on partner management")
	}

	allow, err = svc.EnforceUser(4, "admin", "/api/v1/admin/partners/2", "GET")
	if err != nil {
		t.Fatalf("enforce inherited readonly failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected inherited readonly permission")
	}
}

func TestSetUserRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("ops", "/admin/partners", "GET"); err != nil {
		t.Fatalf("grant ops policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("finance", "/admin/payouts", "GET"); err != nil {
		t.Fatalf("grant finance policy failed: %v", err)
	}

	if err := svc.SetUserRoles(2, []string{"ops"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	roles, err := svc.GetUserRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:ops" {
		t.Fatalf("roles want [role:ops], got=%v", roles)
	}

	if err := svc.SetUserRoles(2, []string{"finance"}); err != nil {
		t.Fatalf("set second role failed: %v", err)
	}
	roles, err = svc.GetUserRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:finance" {
		t.Fatalf("roles want [role:finance], got=%v", roles)
	}

	allow, err := svc.Enforce(SubjectForUser(2), "/admin/partners", "GET")
	if err != nil {
		t.Fatalf("enforce old role failed: %v", err)
	}
	if allow {
		t.Fatalf("expected old role permission removed")
	}

	allow, err = svc.Enforce(SubjectForUser(2), "/admin/payouts", "GET")
	if err != nil {
		t.Fatalf("enforce new role failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected new role permission granted")
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "/admin/orders/:id", want: "/admin/orders/:id"},
		{in: "admin/orders", want: "/admin/orders"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}
