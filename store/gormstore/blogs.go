package gormstore

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

// BlogStore implements store.BlogStore.
type BlogStore struct {
	db *gorm.DB
}

var _ store.BlogStore = (*BlogStore)(nil)

const newestFirst = "created_at DESC, id DESC"

func (s *BlogStore) Create(ctx context.Context, blog *models.Blog) error {
	now := timestamp()
	row := blogRow{
		ID:        newID(),
		Title:     blog.Title,
		Content:   blog.Content,
		Image:     blog.Image,
		Tags:      orEmpty(blog.Tags),
		AuthorID:  blog.AuthorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	*blog = models.Blog{
		ID:        row.ID,
		Title:     row.Title,
		Content:   row.Content,
		Image:     row.Image,
		Tags:      row.Tags,
		AuthorID:  row.AuthorID,
		Likes:     []string{},
		Comments:  []models.Comment{},
		Reports:   []models.Report{},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	return nil
}

// hydrateBlogs attaches likes, comments and reports, keeping row order.
func hydrateBlogs(db *gorm.DB, rows []blogRow) ([]models.Blog, error) {
	out := make([]models.Blog, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	var likes []likeRow
	if err := db.Where("blog_id IN ?", ids).Order("created_at, user_id").Find(&likes).Error; err != nil {
		return nil, err
	}
	var comments []commentRow
	if err := db.Where("blog_id IN ?", ids).Order("created_at, id").Find(&comments).Error; err != nil {
		return nil, err
	}
	var reports []reportRow
	if err := db.Where("blog_id IN ?", ids).Order("created_at, user_id").Find(&reports).Error; err != nil {
		return nil, err
	}

	lk := map[string][]string{}
	for _, l := range likes {
		lk[l.BlogID] = append(lk[l.BlogID], l.UserID)
	}
	cm := map[string][]models.Comment{}
	for _, c := range comments {
		cm[c.BlogID] = append(cm[c.BlogID], models.Comment{ID: c.ID, UserID: c.UserID, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	rp := map[string][]models.Report{}
	for _, r := range reports {
		rp[r.BlogID] = append(rp[r.BlogID], models.Report{UserID: r.UserID, Reason: r.Reason, CreatedAt: r.CreatedAt})
	}

	for _, r := range rows {
		b := models.Blog{
			ID:        r.ID,
			Title:     r.Title,
			Content:   r.Content,
			Image:     r.Image,
			Tags:      orEmpty(r.Tags),
			AuthorID:  r.AuthorID,
			Likes:     orEmpty(lk[r.ID]),
			Comments:  cm[r.ID],
			Reports:   rp[r.ID],
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
		if b.Comments == nil {
			b.Comments = []models.Comment{}
		}
		out = append(out, b)
	}
	return out, nil
}

func loadBlog(db *gorm.DB, id string) (*models.Blog, error) {
	var row blogRow
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	blogs, err := hydrateBlogs(db, []blogRow{row})
	if err != nil {
		return nil, err
	}
	return &blogs[0], nil
}

// lockBlog takes a row lock on the blog for the rest of tx.
func lockBlog(tx *gorm.DB, id string) error {
	var row blogRow
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&row, "id = ?", id).Error
	return translate(err)
}

func (s *BlogStore) GetByID(ctx context.Context, id string) (*models.Blog, error) {
	return loadBlog(s.db.WithContext(ctx), id)
}

func (s *BlogStore) GetMany(ctx context.Context, ids []string) ([]models.Blog, error) {
	if len(ids) == 0 {
		return []models.Blog{}, nil
	}
	db := s.db.WithContext(ctx)
	var rows []blogRow
	if err := db.Where("id IN ?", ids).Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, err
	}
	return hydrateBlogs(db, rows)
}

func applyFilter(db *gorm.DB, f store.BlogFilter) *gorm.DB {
	if f.Query != "" {
		p := containsPattern(f.Query)
		db = db.Where("(LOWER(title) LIKE ? OR LOWER(content) LIKE ?)", p, p)
	}
	if f.Tag != "" {
		db = db.Where("JSON_CONTAINS(tags, JSON_QUOTE(?))", f.Tag)
	}
	if f.AuthorID != "" {
		db = db.Where("author_id = ?", f.AuthorID)
	}
	if f.LikedBy != "" {
		db = db.Where("id IN (?)", db.Session(&gorm.Session{NewDB: true}).Model(&likeRow{}).Select("blog_id").Where("user_id = ?", f.LikedBy))
	}
	if f.Reported {
		db = db.Where("EXISTS (SELECT 1 FROM blog_reports r WHERE r.blog_id = blogs.id)")
	}
	return db
}

func (s *BlogStore) List(ctx context.Context, filter store.BlogFilter) ([]models.Blog, error) {
	db := s.db.WithContext(ctx)
	var rows []blogRow
	if err := applyFilter(db.Model(&blogRow{}), filter).Order(newestFirst).Find(&rows).Error; err != nil {
		return nil, err
	}
	return hydrateBlogs(db, rows)
}

func (s *BlogStore) Count(ctx context.Context, filter store.BlogFilter) (int64, error) {
	var n int64
	err := applyFilter(s.db.WithContext(ctx).Model(&blogRow{}), filter).Count(&n).Error
	return n, err
}

func (s *BlogStore) Update(ctx context.Context, id string, patch models.BlogPatch) (*models.Blog, error) {
	db := s.db.WithContext(ctx)
	values := map[string]any{"updated_at": timestamp()}
	if patch.Title != nil {
		values["title"] = *patch.Title
	}
	if patch.Content != nil {
		values["content"] = *patch.Content
	}
	if patch.Image != nil {
		values["image"] = *patch.Image
	}
	if patch.Tags != nil {
		tags, err := json.Marshal(orEmpty(*patch.Tags))
		if err != nil {
			return nil, err
		}
		values["tags"] = string(tags)
	}
	if err := db.Model(&blogRow{}).Where("id = ?", id).Updates(values).Error; err != nil {
		return nil, err
	}
	return loadBlog(db, id)
}

// deleteBlogs removes blogs and their child rows.
func deleteBlogs(tx *gorm.DB, ids []string) (int64, error) {
	for _, m := range []any{&likeRow{}, &commentRow{}, &reportRow{}} {
		if err := tx.Where("blog_id IN ?", ids).Delete(m).Error; err != nil {
			return 0, err
		}
	}
	res := tx.Where("id IN ?", ids).Delete(&blogRow{})
	return res.RowsAffected, res.Error
}

func (s *BlogStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := deleteBlogs(tx, []string{id})
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (s *BlogStore) ToggleLike(ctx context.Context, blogID, userID string) (*models.Blog, bool, error) {
	var (
		blog  *models.Blog
		liked bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBlog(tx, blogID); err != nil {
			return err
		}
		res := tx.Where("blog_id = ? AND user_id = ?", blogID, userID).Delete(&likeRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			liked = true
			if err := tx.Create(&likeRow{BlogID: blogID, UserID: userID, CreatedAt: timestamp()}).Error; err != nil {
				return err
			}
		}
		var err error
		blog, err = loadBlog(tx, blogID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return blog, liked, nil
}

func (s *BlogStore) AddComment(ctx context.Context, blogID string, comment models.Comment) (*models.Blog, error) {
	var blog *models.Blog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBlog(tx, blogID); err != nil {
			return err
		}
		created := comment.CreatedAt
		if created.IsZero() {
			created = timestamp()
		}
		row := commentRow{
			ID:        newID(),
			BlogID:    blogID,
			UserID:    comment.UserID,
			Text:      comment.Text,
			CreatedAt: created.UTC().Truncate(time.Millisecond),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		var err error
		blog, err = loadBlog(tx, blogID)
		return err
	})
	return blog, err
}

func (s *BlogStore) UpdateComment(ctx context.Context, blogID, commentID, text string) (*models.Blog, error) {
	db := s.db.WithContext(ctx)
	res := db.Model(&commentRow{}).Where("id = ? AND blog_id = ?", commentID, blogID).Update("text", text)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&commentRow{}).Where("id = ? AND blog_id = ?", commentID, blogID).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, store.ErrNotFound
		}
	}
	return loadBlog(db, blogID)
}

func (s *BlogStore) DeleteComment(ctx context.Context, blogID, commentID string) (*models.Blog, error) {
	db := s.db.WithContext(ctx)
	res := db.Where("id = ? AND blog_id = ?", commentID, blogID).Delete(&commentRow{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return loadBlog(db, blogID)
}

// AddReport relies on the (blog_id, user_id) primary key: a second insert
// by the same user affects no rows.
func (s *BlogStore) AddReport(ctx context.Context, blogID string, report models.Report) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBlog(tx, blogID); err != nil {
			return err
		}
		created := report.CreatedAt
		if created.IsZero() {
			created = timestamp()
		}
		row := reportRow{BlogID: blogID, UserID: report.UserID, Reason: report.Reason, CreatedAt: created.UTC().Truncate(time.Millisecond)}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrAlreadyReported
		}
		return nil
	})
}

func (s *BlogStore) DeleteByAuthor(ctx context.Context, authorID string) ([]string, error) {
	ids := []string{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&blogRow{}).Where("author_id = ?", authorID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		_, err := deleteBlogs(tx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *BlogStore) PurgeUser(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{&likeRow{}, &commentRow{}, &reportRow{}} {
			if err := tx.Where("user_id = ?", userID).Delete(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
