package gormstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

// UserStore implements store.UserStore.
type UserStore struct {
	db *gorm.DB
}

var _ store.UserStore = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	now := timestamp()
	row := userRow{
		ID:           newID(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return translate(err)
	}
	*user = models.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         models.Role(row.Role),
		Following:    []string{},
		Followers:    []string{},
		SavedBlogs:   []string{},
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	return nil
}

// hydrate loads the edge lists for rows in three queries.
func hydrateUsers(db *gorm.DB, rows []userRow) ([]models.User, error) {
	out := make([]models.User, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	var following []followingRow
	if err := db.Where("user_id IN ?", ids).Order("created_at, target_id").Find(&following).Error; err != nil {
		return nil, err
	}
	var followers []followerRow
	if err := db.Where("user_id IN ?", ids).Order("created_at, follower_id").Find(&followers).Error; err != nil {
		return nil, err
	}
	var saved []savedRow
	if err := db.Where("user_id IN ?", ids).Order("created_at, blog_id").Find(&saved).Error; err != nil {
		return nil, err
	}

	fg := map[string][]string{}
	for _, f := range following {
		fg[f.UserID] = append(fg[f.UserID], f.TargetID)
	}
	fr := map[string][]string{}
	for _, f := range followers {
		fr[f.UserID] = append(fr[f.UserID], f.FollowerID)
	}
	sv := map[string][]string{}
	for _, s := range saved {
		sv[s.UserID] = append(sv[s.UserID], s.BlogID)
	}

	for _, r := range rows {
		out = append(out, models.User{
			ID:           r.ID,
			Name:         r.Name,
			Email:        r.Email,
			PasswordHash: r.PasswordHash,
			Role:         models.Role(r.Role),
			Following:    orEmpty(fg[r.ID]),
			Followers:    orEmpty(fr[r.ID]),
			SavedBlogs:   orEmpty(sv[r.ID]),
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		})
	}
	return out, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (s *UserStore) first(db *gorm.DB, query string, arg any) (*models.User, error) {
	var row userRow
	if err := db.Where(query, arg).First(&row).Error; err != nil {
		return nil, translate(err)
	}
	users, err := hydrateUsers(db, []userRow{row})
	if err != nil {
		return nil, err
	}
	return &users[0], nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.first(s.db.WithContext(ctx), "id = ?", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(s.db.WithContext(ctx), "email = ?", email)
}

func (s *UserStore) GetMany(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	db := s.db.WithContext(ctx)
	var rows []userRow
	if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return hydrateUsers(db, rows)
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	var rows []userRow
	if err := db.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return hydrateUsers(db, rows)
}

func (s *UserStore) update(ctx context.Context, id string, values map[string]any) (*models.User, error) {
	db := s.db.WithContext(ctx)
	values["updated_at"] = timestamp()
	res := db.Model(&userRow{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return nil, res.Error
	}
	return s.first(db, "id = ?", id)
}

func (s *UserStore) UpdateProfile(ctx context.Context, id string, name, passwordHash *string) (*models.User, error) {
	values := map[string]any{}
	if name != nil {
		values["name"] = *name
	}
	if passwordHash != nil {
		values["password_hash"] = *passwordHash
	}
	return s.update(ctx, id, values)
}

func (s *UserStore) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	return s.update(ctx, id, map[string]any{"role": string(role)})
}

// Delete removes the user row together with the user's own edge rows.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&userRow{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrNotFound
		}
		for _, m := range []any{&followingRow{}, &followerRow{}, &savedRow{}} {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&userRow{}).Count(&n).Error
	return n, err
}

// toggleEdge locks the owner row, then removes the edge if present or
// inserts it otherwise.
func (s *UserStore) toggleEdge(ctx context.Context, ownerID string, edge any, where string, args ...any) (bool, error) {
	var present bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner userRow
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&owner, "id = ?", ownerID).Error; err != nil {
			return translate(err)
		}
		res := tx.Where(where, args...).Delete(edge)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		present = true
		return tx.Create(edge).Error
	})
	return present, err
}

func (s *UserStore) ToggleSavedBlog(ctx context.Context, userID, blogID string) (bool, error) {
	edge := &savedRow{UserID: userID, BlogID: blogID, CreatedAt: timestamp()}
	return s.toggleEdge(ctx, userID, edge, "user_id = ? AND blog_id = ?", userID, blogID)
}

func (s *UserStore) ToggleFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	edge := &followingRow{UserID: followerID, TargetID: targetID, CreatedAt: timestamp()}
	return s.toggleEdge(ctx, followerID, edge, "user_id = ? AND target_id = ?", followerID, targetID)
}

func (s *UserStore) SetFollower(ctx context.Context, targetID, followerID string, present bool) error {
	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&userRow{}).Where("id = ?", targetID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	if !present {
		return db.Where("user_id = ? AND follower_id = ?", targetID, followerID).Delete(&followerRow{}).Error
	}
	row := followerRow{UserID: targetID, FollowerID: followerID, CreatedAt: timestamp()}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *UserStore) PullSavedBlogs(ctx context.Context, blogIDs []string) error {
	if len(blogIDs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where("blog_id IN ?", blogIDs).Delete(&savedRow{}).Error
}

func (s *UserStore) PullFollowEdges(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("target_id = ?", userID).Delete(&followingRow{}).Error; err != nil {
			return err
		}
		return tx.Where("follower_id = ?", userID).Delete(&followerRow{}).Error
	})
}
