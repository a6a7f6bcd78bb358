package model

// Permission is a fine-grained capability tag scoped to a resource/action
// pair, e.g. "products:manage".  Permissions are only meaningful on admin
// accounts; regular users carry no permission semantics.
type Permission string

// The fixed permission universe, grouped by resource.  View covers read
// access (listing, detail pages, exports); manage covers create, update and
// delete on the same resource.
const (
	PermUsersView          Permission = "users:view"
	PermUsersManage        Permission = "users:manage"
	PermProductsView       Permission = "products:view"
	PermProductsManage     Permission = "products:manage"
	PermCategoriesView     Permission = "categories:view"
	PermCategoriesManage   Permission = "categories:manage"
	PermTagCategoriesView  Permission = "tag-categories:view"
	PermTagCategoriesManage Permission = "tag-categories:manage"
	PermAdminsView         Permission = "admins:view"
	PermAdminsManage       Permission = "admins:manage"
	PermDashboardView      Permission = "dashboard:view"
	PermSettingsManage     Permission = "settings:manage"
)

// AllPermissions lists every tag in the universe, in a stable order.
var AllPermissions = []Permission{
	PermUsersView, PermUsersManage,
	PermProductsView, PermProductsManage,
	PermCategoriesView, PermCategoriesManage,
	PermTagCategoriesView, PermTagCategoriesManage,
	PermAdminsView, PermAdminsManage,
	PermDashboardView, PermSettingsManage,
}

// ValidPermission reports whether p belongs to the fixed universe.
func ValidPermission(p Permission) bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// AdminLevel is the ordinal admin hierarchy: MODERATOR < ADMIN < SUPER_ADMIN.
// A user with role ADMIN always carries a level; regular users never do.
type AdminLevel uint8

const (
	LevelModerator  AdminLevel = 1
	LevelAdmin      AdminLevel = 2
	LevelSuperAdmin AdminLevel = 3
)

// String returns the canonical wire name of the level.
func (l AdminLevel) String() string {
	switch l {
	case LevelModerator:
		return "MODERATOR"
	case LevelAdmin:
		return "ADMIN"
	case LevelSuperAdmin:
		return "SUPER_ADMIN"
	}
	return "UNKNOWN"
}

// ParseAdminLevel maps a wire name back to a level.  The boolean is false
// for names outside the hierarchy.
func ParseAdminLevel(s string) (AdminLevel, bool) {
	switch s {
	case "MODERATOR":
		return LevelModerator, true
	case "ADMIN":
		return LevelAdmin, true
	case "SUPER_ADMIN":
		return LevelSuperAdmin, true
	}
	return 0, false
}

// ValidAdminLevel reports whether l is one of the three defined levels.
func ValidAdminLevel(l AdminLevel) bool {
	return l == LevelModerator || l == LevelAdmin || l == LevelSuperAdmin
}

// DefaultPermissions returns the default permission set granted when an
// account is promoted to the given level without an explicit permission
// list.  MODERATOR gets the read-mostly subset, ADMIN gets full catalog and
// user management minus admin management, SUPER_ADMIN implicitly holds every
// permission so the stored set is simply the whole universe (it is never
// consulted for super admins).
func DefaultPermissions(l AdminLevel) []Permission {
	switch l {
	case LevelModerator:
		return []Permission{
			PermUsersView,
			PermProductsView,
			PermCategoriesView,
			PermTagCategoriesView,
			PermDashboardView,
		}
	case LevelAdmin:
		return []Permission{
			PermUsersView, PermUsersManage,
			PermProductsView, PermProductsManage,
			PermCategoriesView, PermCategoriesManage,
			PermTagCategoriesView, PermTagCategoriesManage,
			PermDashboardView, PermSettingsManage,
		}
	case LevelSuperAdmin:
		out := make([]Permission, len(AllPermissions))
		copy(out, AllPermissions)
		return out
	}
	return nil
}
