package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/modacart/auth-service/internal/middleware"
	"github.com/modacart/auth-service/internal/model"
	"github.com/modacart/auth-service/internal/repository"
	"github.com/modacart/auth-service/internal/service"
)

// AdminHandler exposes the super-admin management endpoints. The router
// wraps the whole group in JWTAuth + RequireSuperAdmin, so by the time a
// request lands here the acting user is a live SUPER_ADMIN.
type AdminHandler struct {
	Admins *service.AdminService
}

func NewAdminHandler(admins *service.AdminService) *AdminHandler {
	return &AdminHandler{Admins: admins}
}

// adminPart is the admin-listing payload. It never carries the password
// hash.
type adminPart struct {
	ID          uint64             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	AdminLevel  string             `json:"adminLevel"`
	Permissions []model.Permission `json:"permissions"`
	IsDeleted   bool               `json:"isDeleted"`
}

func toAdminPart(u model.User) adminPart {
	perms := u.Permissions
	if perms == nil {
		perms = []model.Permission{}
	}
	return adminPart{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		AdminLevel:  u.AdminLevel.String(),
		Permissions: perms,
		IsDeleted:   u.IsDeleted,
	}
}

type updatePermissionsReq struct {
	AdminLevel  *string            `json:"adminLevel"`
	Permissions []model.Permission `json:"permissions"` // nil when absent
}

// List: filter and paginate admin accounts.
// Query params: level, search, include_deleted, page, limit.
func (h *AdminHandler) List(c echo.Context) error {
	q := repository.AdminQuery{
		Search:         c.QueryParam("search"),
		IncludeDeleted: c.QueryParam("include_deleted") == "true",
		Page:           atoiDefault(c.QueryParam("page"), 1),
		Limit:          atoiDefault(c.QueryParam("limit"), 20),
	}
	if lvl := strings.TrimSpace(c.QueryParam("level")); lvl != "" {
		parsed, ok := model.ParseAdminLevel(lvl)
		if !ok {
			return writeServiceError(c, service.ErrInvalidAdminLevel)
		}
		q.Level = parsed
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	admins, total, err := h.Admins.ListAdmins(ctx, q)
	if err != nil {
		return writeServiceError(c, err)
	}
	out := make([]adminPart, 0, len(admins))
	for _, a := range admins {
		out = append(out, toAdminPart(a))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"admins": out,
		"total":  total,
		"page":   q.Page,
		"limit":  q.Limit,
	})
}

// Get: fetch one admin by id.
func (h *AdminHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	admin, err := h.Admins.GetAdmin(ctx, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"admin": toAdminPart(admin)})
}

// UpdatePermissions: change a target admin's level and/or permission set.
func (h *AdminHandler) UpdatePermissions(c echo.Context) error {
	targetID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	actingID, _ := middleware.UserID(c)

	var req updatePermissionsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	upd := service.PermissionUpdate{Permissions: req.Permissions}
	if req.AdminLevel != nil {
		parsed, ok := model.ParseAdminLevel(*req.AdminLevel)
		if !ok {
			return writeServiceError(c, service.ErrInvalidAdminLevel)
		}
		upd.Level = &parsed
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	admin, err := h.Admins.UpdateAdminPermissions(ctx, targetID, actingID, upd)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"admin": toAdminPart(admin)})
}

// Grant: add a single permission to the target's set (idempotent).
func (h *AdminHandler) Grant(c echo.Context) error {
	return h.permissionChange(c, h.Admins.GrantPermission)
}

// Revoke: remove a single permission from the target's set (idempotent).
func (h *AdminHandler) Revoke(c echo.Context) error {
	return h.permissionChange(c, h.Admins.RevokePermission)
}

func (h *AdminHandler) permissionChange(
	c echo.Context,
	op func(ctx context.Context, targetID, actingID uint64, perm model.Permission) (model.User, error),
) error {
	targetID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	actingID, _ := middleware.UserID(c)
	perm := model.Permission(c.Param("perm"))

	ctx, cancel := reqContext(c)
	defer cancel()

	admin, err := op(ctx, targetID, actingID, perm)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"admin": toAdminPart(admin)})
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
