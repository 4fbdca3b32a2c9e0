package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

type userDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Name         string               `bson:"name"`
	Email        string               `bson:"email"`
	PasswordHash string               `bson:"password_hash"`
	Role         string               `bson:"role"`
	Following    []primitive.ObjectID `bson:"following"`
	Followers    []primitive.ObjectID `bson:"followers"`
	SavedBlogs   []primitive.ObjectID `bson:"saved_blogs"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
}

func (d *userDoc) model() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         models.Role(d.Role),
		Following:    hexes(d.Following),
		Followers:    hexes(d.Followers),
		SavedBlogs:   hexes(d.SavedBlogs),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// UserStore implements store.UserStore.
type UserStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ store.UserStore = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	now := s.now()
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Following:    oids(user.Following),
		Followers:    oids(user.Followers),
		SavedBlogs:   oids(user.SavedBlogs),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return err
	}
	*user = *doc.model()
	return nil
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var doc userDoc
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: o}})
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *UserStore) find(ctx context.Context, filter bson.D, opts ...*options.FindOptions) ([]models.User, error) {
	cur, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].model())
	}
	return out, nil
}

func (s *UserStore) GetMany(ctx context.Context, ids []string) ([]models.User, error) {
	keys := oids(ids)
	if len(keys) == 0 {
		return []models.User{}, nil
	}
	return s.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: keys}}}})
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	return s.find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
}

func (s *UserStore) update(ctx context.Context, id string, set bson.D) (*models.User, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	set = append(set, bson.E{Key: "updated_at", Value: s.now()})
	var doc userDoc
	err = s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: o}}, bson.D{{Key: "$set", Value: set}}, afterUpdate()).Decode(&doc)
	if err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id string, name, passwordHash *string) (*models.User, error) {
	set := bson.D{}
	if name != nil {
		set = append(set, bson.E{Key: "name", Value: *name})
	}
	if passwordHash != nil {
		set = append(set, bson.E{Key: "password_hash", Value: *passwordHash})
	}
	return s.update(ctx, id, set)
}

func (s *UserStore) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	return s.update(ctx, id, bson.D{{Key: "role", Value: string(role)}})
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	o, err := oid(id)
	if err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: o}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *UserStore) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.D{})
}

// toggleRef flips v in the user's array field and reports whether it is
// now present.
func (s *UserStore) toggleRef(ctx context.Context, userID, field, ref string) (bool, error) {
	u, err := oid(userID)
	if err != nil {
		return false, err
	}
	v, err := oid(ref)
	if err != nil {
		return false, err
	}
	var doc bson.M
	err = s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: u}},
		toggle(field, v),
		afterUpdate().SetProjection(bson.D{{Key: field, Value: 1}}),
	).Decode(&doc)
	if err != nil {
		return false, notFound(err)
	}
	arr, _ := doc[field].(primitive.A)
	for _, x := range arr {
		if x == v {
			return true, nil
		}
	}
	return false, nil
}

func (s *UserStore) ToggleSavedBlog(ctx context.Context, userID, blogID string) (bool, error) {
	return s.toggleRef(ctx, userID, "saved_blogs", blogID)
}

func (s *UserStore) ToggleFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	return s.toggleRef(ctx, followerID, "following", targetID)
}

func (s *UserStore) SetFollower(ctx context.Context, targetID, followerID string, present bool) error {
	t, err := oid(targetID)
	if err != nil {
		return err
	}
	f, err := oid(followerID)
	if err != nil {
		return err
	}
	op := "$pull"
	if present {
		op = "$addToSet"
	}
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: t}}, bson.D{{Key: op, Value: bson.D{{Key: "followers", Value: f}}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *UserStore) PullSavedBlogs(ctx context.Context, blogIDs []string) error {
	keys := oids(blogIDs)
	if len(keys) == 0 {
		return nil
	}
	in := bson.D{{Key: "$in", Value: keys}}
	_, err := s.coll.UpdateMany(ctx,
		bson.D{{Key: "saved_blogs", Value: in}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "saved_blogs", Value: in}}}},
	)
	return err
}

func (s *UserStore) PullFollowEdges(ctx context.Context, userID string) error {
	u, err := oid(userID)
	if err != nil {
		return nil
	}
	_, err = s.coll.UpdateMany(ctx,
		bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "following", Value: u}},
			bson.D{{Key: "followers", Value: u}},
		}}},
		bson.D{{Key: "$pull", Value: bson.D{{Key: "following", Value: u}, {Key: "followers", Value: u}}}},
	)
	return err
}
