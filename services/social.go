package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/inkpress/apperr"
	"github.com/cppla/inkpress/events"
	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

var errFollowSyncExhausted = errors.New("followers edge kept changing during sync")

// SocialService handles follow edges and profile pages.
type SocialService struct {
	users  store.UserStore
	blogs  store.BlogStore
	view   viewer
	events events.Publisher
	log    *zap.Logger
	now    func() time.Time
}

// NewSocialService creates a SocialService. pub and log may be nil.
func NewSocialService(users store.UserStore, blogs store.BlogStore, pub events.Publisher, log *zap.Logger) *SocialService {
	if pub == nil {
		pub = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SocialService{
		users:  users,
		blogs:  blogs,
		view:   viewer{users: users},
		events: pub,
		log:    log,
		now:    time.Now,
	}
}

// maxFollowSyncAttempts bounds how often syncFollower rewrites the target's
// followers entry while concurrent toggles keep changing the source edge.
const maxFollowSyncAttempts = 5

// ToggleFollow follows target if the caller does not already, otherwise
// unfollows. The caller's following list is flipped atomically first; the
// target's followers list is then reconciled with it by syncFollower.
func (s *SocialService) ToggleFollow(ctx context.Context, caller *models.User, targetID string) (bool, error) {
	if err := requireIdentity(caller); err != nil {
		return false, err
	}
	if caller.ID == targetID {
		return false, apperr.Invalidf(40005, "you cannot follow yourself")
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return false, storeErr(err, errUserNotFound, "failed to load user")
	}
	following, err := s.users.ToggleFollowing(ctx, caller.ID, targetID)
	if err != nil {
		return false, storeErr(err, errUserNotFound, "failed to update following")
	}
	if err := s.syncFollower(ctx, caller.ID, targetID, following); err != nil {
		s.log.Error("follower edge out of sync",
			zap.String("follower_id", caller.ID),
			zap.String("target_id", targetID),
			zap.Error(err))
		return false, storeErr(err, errUserNotFound, "failed to update followers")
	}
	s.events.Publish(ctx, events.SubjectUserFollowed, events.UserFollowed{
		FollowerID: caller.ID,
		TargetID:   targetID,
		Following:  following,
		Timestamp:  s.now().UTC(),
	})
	return following, nil
}

// syncFollower writes want into target's followers and re-reads the
// follower's following edge afterwards. A toggle that landed in between
// makes the two disagree, so the edge is rewritten from the fresh value.
// The last writer always verifies against the latest edge, which keeps the
// pair from staying torn.
func (s *SocialService) syncFollower(ctx context.Context, followerID, targetID string, want bool) error {
	for attempt := 0; attempt < maxFollowSyncAttempts; attempt++ {
		if err := s.users.SetFollower(ctx, targetID, followerID, want); err != nil {
			return err
		}
		follower, err := s.users.GetByID(ctx, followerID)
		if err != nil {
			return err
		}
		current := follower.IsFollowing(targetID)
		if current == want {
			return nil
		}
		want = current
	}
	return errFollowSyncExhausted
}

func (s *SocialService) Followers(ctx context.Context, userID string) ([]models.UserSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, errUserNotFound, "failed to load user")
	}
	return s.view.summaries(ctx, user.Followers)
}

func (s *SocialService) Following(ctx context.Context, userID string) ([]models.UserSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, errUserNotFound, "failed to load user")
	}
	return s.view.summaries(ctx, user.Following)
}

// Profile aggregates the user with their follow lists and their authored,
// liked and saved blogs.
func (s *SocialService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, errUserNotFound, "failed to load user")
	}
	followers, err := s.view.summaries(ctx, user.Followers)
	if err != nil {
		return nil, err
	}
	following, err := s.view.summaries(ctx, user.Following)
	if err != nil {
		return nil, err
	}

	authored, err := s.blogs.List(ctx, store.BlogFilter{AuthorID: user.ID})
	if err != nil {
		return nil, apperr.Wrap(err, 50004, "failed to load blogs")
	}
	liked, err := s.blogs.List(ctx, store.BlogFilter{LikedBy: user.ID})
	if err != nil {
		return nil, apperr.Wrap(err, 50004, "failed to load blogs")
	}
	saved, err := s.blogs.GetMany(ctx, user.SavedBlogs)
	if err != nil {
		return nil, apperr.Wrap(err, 50004, "failed to load blogs")
	}

	profile := &models.Profile{
		User: models.ProfileUser{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Followers: followers,
			Following: following,
		},
	}
	if profile.Blogs, err = s.view.blogs(ctx, authored, false); err != nil {
		return nil, err
	}
	if profile.LikedBlogs, err = s.view.blogs(ctx, liked, false); err != nil {
		return nil, err
	}
	if profile.SavedBlogs, err = s.view.blogs(ctx, saved, false); err != nil {
		return nil, err
	}
	return profile, nil
}
