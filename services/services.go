// Package services implements the business operations behind the HTTP
// handlers. Every exported method returns *apperr.Error values for expected
// failures; anything else is wrapped as internal.
package services

import (
	"context"
	"errors"

	"github.com/cppla/inkpress/apperr"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

// CanModify reports whether identity may edit or delete a resource owned by
// ownerID: the owner and admins may, nobody else.
func CanModify(identity *models.User, ownerID string) bool {
	if identity == nil {
		return false
	}
	return identity.ID == ownerID || identity.IsAdmin()
}

func requireIdentity(identity *models.User) error {
	if identity == nil {
		return apperr.Unauthenticatedf(40101, "authentication required")
	}
	return nil
}

func errBlogNotFound() error    { return apperr.NotFoundf(40401, "blog not found") }
func errCommentNotFound() error { return apperr.NotFoundf(40402, "comment not found") }
func errUserNotFound() error    { return apperr.NotFoundf(40403, "user not found") }

// storeErr classifies a store failure. notFound is returned for
// store.ErrNotFound; everything else becomes internal.
func storeErr(err error, notFound func() error, msg string) error {
	if errors.Is(err, store.ErrNotFound) && notFound != nil {
		return notFound()
	}
	return apperr.Wrap(err, 50001, msg)
}

// viewer expands stored records into their display form.
type viewer struct {
	users store.UserStore
}

func (v viewer) lookup(ctx context.Context, ids []string) (map[string]*models.User, error) {
	byID := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	users, err := v.users.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID, nil
}

func summaryOf(u *models.User) *models.UserSummary {
	if u == nil {
		return nil
	}
	s := u.Summary()
	return &s
}

// blogs expands authors and comment authors; report users too when
// withReports is set.
func (v viewer) blogs(ctx context.Context, blogs []models.Blog, withReports bool) ([]models.BlogView, error) {
	seen := map[string]bool{}
	ids := []string{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, b := range blogs {
		add(b.AuthorID)
		for _, c := range b.Comments {
			add(c.UserID)
		}
		if withReports {
			for _, r := range b.Reports {
				add(r.UserID)
			}
		}
	}
	byID, err := v.lookup(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(err, 50002, "failed to load users")
	}

	out := make([]models.BlogView, 0, len(blogs))
	for _, b := range blogs {
		view := models.BlogView{
			ID:        b.ID,
			Title:     b.Title,
			Content:   b.Content,
			Image:     b.Image,
			Tags:      nonNil(b.Tags),
			Likes:     nonNil(b.Likes),
			Comments:  make([]models.CommentView, 0, len(b.Comments)),
			CreatedAt: b.CreatedAt,
			UpdatedAt: b.UpdatedAt,
		}
		if author := byID[b.AuthorID]; author != nil {
			a := author.Account()
			view.Author = &a
		}
		for _, c := range b.Comments {
			view.Comments = append(view.Comments, models.CommentView{
				ID:        c.ID,
				User:      summaryOf(byID[c.UserID]),
				Text:      c.Text,
				CreatedAt: c.CreatedAt,
			})
		}
		if withReports {
			view.Reports = make([]models.ReportView, 0, len(b.Reports))
			for _, r := range b.Reports {
				view.Reports = append(view.Reports, models.ReportView{
					User:      summaryOf(byID[r.UserID]),
					Reason:    r.Reason,
					CreatedAt: r.CreatedAt,
				})
			}
		}
		out = append(out, view)
	}
	return out, nil
}

func (v viewer) blog(ctx context.Context, b *models.Blog) (*models.BlogView, error) {
	views, err := v.blogs(ctx, []models.Blog{*b}, false)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// summaries returns the users behind ids in the order of ids, skipping
// users that no longer exist.
func (v viewer) summaries(ctx context.Context, ids []string) ([]models.UserSummary, error) {
	byID, err := v.lookup(ctx, ids)
	if err != nil {
		return nil, apperr.Wrap(err, 50002, "failed to load users")
	}
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if u := byID[id]; u != nil {
			out = append(out, u.Summary())
		}
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
