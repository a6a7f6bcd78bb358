package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/modacart/auth-service/internal/model"
	"github.com/modacart/auth-service/internal/utils"
)

// UserRepo is the credential store over the 'users' table. Password hashing
// happens transparently on write: callers always pass plaintext and the repo
// never hands raw hashes back out through admin listings.
type UserRepo struct {
	DB   *sql.DB
	Cost int // bcrypt cost applied whenever a plaintext password is written
}

func NewUserRepo(db *sql.DB, cost int) *UserRepo { return &UserRepo{DB: db, Cost: cost} }

// NewUser carries the fields of an account to be created. Password is
// plaintext (may be empty for token-created accounts); Email and Phone may
// each be empty but not both.
type NewUser struct {
	Name        string
	Email       string
	Phone       string
	Password    string
	AvatarURL   string
	Role        string
	AdminLevel  model.AdminLevel   // zero unless Role is ADMIN
	Permissions []model.Permission // ignored unless Role is ADMIN
}

const userColumns = "id,name,email,phone,password_hash,avatar_url,role,admin_level,permissions,is_deleted,deleted_at,created_at,updated_at"

// Create inserts a user and returns its ID. Empty optional fields are
// stored as NULL so the unique indexes on email and phone ignore them.
func (r *UserRepo) Create(ctx context.Context, nu NewUser) (uint64, error) {
	var hash sql.NullString
	if nu.Password != "" {
		h, err := utils.HashPassword(nu.Password, r.Cost)
		if err != nil {
			return 0, err
		}
		hash = sql.NullString{String: h, Valid: true}
	}
	perms, err := marshalPermissions(nu.Permissions)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, phone, password_hash, avatar_url, role, admin_level, permissions) VALUES (?,?,?,?,?,?,?,?)",
		nu.Name, nullStr(strings.ToLower(strings.TrimSpace(nu.Email))), nullStr(nu.Phone),
		hash, nullStr(nu.AvatarURL), nu.Role, nullLevel(nu.AdminLevel), perms)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// FindByPhone fetches a user by phone number.
func (r *UserRepo) FindByPhone(ctx context.Context, phone string) (model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE phone=? LIMIT 1", phone)
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// UpdatePassword hashes the plaintext and stores the new hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, plain string) error {
	h, err := utils.HashPassword(plain, r.Cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", h, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// RowsAffected is also 0 when the hash happens to be unchanged,
		// which cannot occur with bcrypt's per-call salt.
		return ErrNotFound
	}
	return nil
}

// Save persists the mutable profile/admin fields of an existing record.
// The password hash is never written through Save; use UpdatePassword.
func (r *UserRepo) Save(ctx context.Context, u *model.User) error {
	perms, err := marshalPermissions(u.Permissions)
	if err != nil {
		return err
	}
	var deletedAt sql.NullTime
	if u.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: *u.DeletedAt, Valid: true}
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, avatar_url=?, role=?, admin_level=?, permissions=?, is_deleted=?, deleted_at=? WHERE id=?",
		u.Name, nullStr(u.AvatarURL), u.Role, nullLevel(u.AdminLevel), perms, u.IsDeleted, deletedAt, u.ID)
	return err
}

// CountSuperAdmins returns the number of live (non-deleted) SUPER_ADMIN rows.
func (r *UserRepo) CountSuperAdmins(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE role=? AND admin_level=? AND is_deleted=0",
		model.RoleAdmin, uint8(model.LevelSuperAdmin)).Scan(&n)
	return n, err
}

// AdminQuery filters and paginates admin listings. Search matches name and
// email case-insensitively; a numeric search term additionally matches the
// id exactly. Page is 1-based.
type AdminQuery struct {
	Level          model.AdminLevel // zero means any level
	Search         string
	IncludeDeleted bool
	Page           int
	Limit          int
}

// filter builds the WHERE clause and its arguments. Search terms match name
// and email case-insensitively; a numeric term additionally matches the id
// exactly, so pasting an id from a support ticket finds the account.
func (q AdminQuery) filter() (string, []any) {
	where := []string{"role=?"}
	args := []any{model.RoleAdmin}
	if q.Level != 0 {
		where = append(where, "admin_level=?")
		args = append(args, uint8(q.Level))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		if id, err := strconv.ParseUint(s, 10, 64); err == nil {
			where = append(where, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR id=?)")
			args = append(args, like, like, id)
		} else {
			where = append(where, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)")
			args = append(args, like, like)
		}
	}
	if !q.IncludeDeleted {
		where = append(where, "is_deleted=0")
	}
	return strings.Join(where, " AND "), args
}

// bounds clamps pagination to workable values and returns LIMIT/OFFSET.
func (q AdminQuery) bounds() (limit, offset int) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit = q.Limit
	if limit < 1 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

// ListAdmins returns one page of admin accounts plus the total match count.
func (r *UserRepo) ListAdmins(ctx context.Context, q AdminQuery) ([]model.User, int, error) {
	cond, args := q.filter()

	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := q.bounds()
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" ORDER BY id LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		u.PasswordHash = "" // listings never expose the hash
		out = append(out, u)
	}
	return out, total, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func (r *UserRepo) findOne(ctx context.Context, query string, arg any) (model.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u                          model.User
		email, phone, hash, avatar sql.NullString
		level                      sql.NullInt16
		deletedAt                  sql.NullTime
		perms                      []byte
	)
	err := row.Scan(&u.ID, &u.Name, &email, &phone, &hash, &avatar, &u.Role,
		&level, &perms, &u.IsDeleted, &deletedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.Email = email.String
	u.Phone = phone.String
	u.PasswordHash = hash.String
	u.AvatarURL = avatar.String
	if level.Valid {
		u.AdminLevel = model.AdminLevel(level.Int16)
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	if len(perms) > 0 {
		if err := json.Unmarshal(perms, &u.Permissions); err != nil {
			return model.User{}, err
		}
	}
	return u, nil
}

func marshalPermissions(ps []model.Permission) ([]byte, error) {
	if ps == nil {
		ps = []model.Permission{}
	}
	return json.Marshal(ps)
}

func nullStr(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullLevel(l model.AdminLevel) sql.NullInt16 {
	if l == 0 {
		return sql.NullInt16{}
	}
	return sql.NullInt16{Int16: int16(l), Valid: true}
}
