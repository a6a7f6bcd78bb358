package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modacart/auth-service/internal/model"
)

func TestAdminQueryFilterDefaults(t *testing.T) {
	cond, args := AdminQuery{}.filter()

	assert.Equal(t, "role=? AND is_deleted=0", cond)
	assert.Equal(t, []any{model.RoleAdmin}, args)
}

func TestAdminQueryFilterLevel(t *testing.T) {
	cond, args := AdminQuery{Level: model.LevelModerator}.filter()

	assert.Equal(t, "role=? AND admin_level=? AND is_deleted=0", cond)
	assert.Equal(t, []any{model.RoleAdmin, uint8(model.LevelModerator)}, args)
}

func TestAdminQueryFilterSearchIsCaseInsensitive(t *testing.T) {
	cond, args := AdminQuery{Search: "  Ada@Example.COM "}.filter()

	// The term is trimmed and lowered; the columns are lowered in SQL.
	assert.Equal(t, "role=? AND (LOWER(name) LIKE ? OR LOWER(email) LIKE ?) AND is_deleted=0", cond)
	assert.Equal(t, []any{model.RoleAdmin, "%ada@example.com%", "%ada@example.com%"}, args)
}

func TestAdminQueryFilterNumericSearchMatchesID(t *testing.T) {
	cond, args := AdminQuery{Search: "42"}.filter()

	assert.Equal(t, "role=? AND (LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR id=?) AND is_deleted=0", cond)
	// A numeric term still matches substrings of name/email (e.g. "agent42")
	// in addition to the exact id.
	assert.Equal(t, []any{model.RoleAdmin, "%42%", "%42%", uint64(42)}, args)
}

func TestAdminQueryFilterIncludeDeleted(t *testing.T) {
	cond, _ := AdminQuery{IncludeDeleted: true}.filter()

	assert.Equal(t, "role=?", cond)
}

func TestAdminQueryBounds(t *testing.T) {
	limit, offset := AdminQuery{}.bounds()
	assert.Equal(t, 20, limit)
	assert.Zero(t, offset)

	limit, offset = AdminQuery{Page: -3, Limit: 0}.bounds()
	assert.Equal(t, 20, limit)
	assert.Zero(t, offset)

	limit, offset = AdminQuery{Page: 3, Limit: 10}.bounds()
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)
}
