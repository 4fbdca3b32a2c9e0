package mongostore

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cppla/inkpress/models"
	"github.com/cppla/inkpress/store"
)

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	User      primitive.ObjectID `bson:"user"`
	Text      string             `bson:"text"`
	CreatedAt time.Time          `bson:"created_at"`
}

type reportDoc struct {
	User      primitive.ObjectID `bson:"user"`
	Reason    string             `bson:"reason"`
	CreatedAt time.Time          `bson:"created_at"`
}

type blogDoc struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Title     string               `bson:"title"`
	Content   string               `bson:"content"`
	Image     string               `bson:"image,omitempty"`
	Tags      []string             `bson:"tags"`
	Author    primitive.ObjectID   `bson:"author"`
	Likes     []primitive.ObjectID `bson:"likes"`
	Comments  []commentDoc         `bson:"comments"`
	Reports   []reportDoc          `bson:"reports"`
	CreatedAt time.Time            `bson:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at"`
}

func (d *blogDoc) model() *models.Blog {
	b := &models.Blog{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		Image:     d.Image,
		Tags:      d.Tags,
		AuthorID:  d.Author.Hex(),
		Likes:     hexes(d.Likes),
		Comments:  make([]models.Comment, 0, len(d.Comments)),
		Reports:   make([]models.Report, 0, len(d.Reports)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if b.Tags == nil {
		b.Tags = []string{}
	}
	for _, c := range d.Comments {
		b.Comments = append(b.Comments, models.Comment{
			ID:        c.ID.Hex(),
			UserID:    c.User.Hex(),
			Text:      c.Text,
			CreatedAt: c.CreatedAt,
		})
	}
	for _, r := range d.Reports {
		b.Reports = append(b.Reports, models.Report{
			UserID:    r.User.Hex(),
			Reason:    r.Reason,
			CreatedAt: r.CreatedAt,
		})
	}
	return b
}

// BlogStore implements store.BlogStore.
type BlogStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ store.BlogStore = (*BlogStore)(nil)

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func (s *BlogStore) Create(ctx context.Context, blog *models.Blog) error {
	author, err := oid(blog.AuthorID)
	if err != nil {
		return err
	}
	now := s.now()
	doc := blogDoc{
		ID:        primitive.NewObjectID(),
		Title:     blog.Title,
		Content:   blog.Content,
		Image:     blog.Image,
		Tags:      blog.Tags,
		Author:    author,
		Likes:     oids(blog.Likes),
		Comments:  []commentDoc{},
		Reports:   []reportDoc{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	*blog = *doc.model()
	return nil
}

func (s *BlogStore) GetByID(ctx context.Context, id string) (*models.Blog, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	var doc blogDoc
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: o}}).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (s *BlogStore) find(ctx context.Context, filter bson.D) ([]models.Blog, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	var docs []blogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Blog, 0, len(docs))
	for i := range docs {
		out = append(out, *docs[i].model())
	}
	return out, nil
}

func (s *BlogStore) GetMany(ctx context.Context, ids []string) ([]models.Blog, error) {
	keys := oids(ids)
	if len(keys) == 0 {
		return []models.Blog{}, nil
	}
	return s.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: keys}}}})
}

// filterDoc translates a BlogFilter. ok is false when the filter can match
// nothing, e.g. a malformed author id.
func filterDoc(f store.BlogFilter) (bson.D, bool) {
	q := bson.D{}
	if f.Query != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		q = append(q, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: rx}},
			bson.D{{Key: "content", Value: rx}},
		}})
	}
	if f.Tag != "" {
		q = append(q, bson.E{Key: "tags", Value: f.Tag})
	}
	if f.AuthorID != "" {
		o, err := oid(f.AuthorID)
		if err != nil {
			return nil, false
		}
		q = append(q, bson.E{Key: "author", Value: o})
	}
	if f.LikedBy != "" {
		o, err := oid(f.LikedBy)
		if err != nil {
			return nil, false
		}
		q = append(q, bson.E{Key: "likes", Value: o})
	}
	if f.Reported {
		q = append(q, bson.E{Key: "reports.0", Value: bson.D{{Key: "$exists", Value: true}}})
	}
	return q, true
}

func (s *BlogStore) List(ctx context.Context, filter store.BlogFilter) ([]models.Blog, error) {
	q, ok := filterDoc(filter)
	if !ok {
		return []models.Blog{}, nil
	}
	return s.find(ctx, q)
}

func (s *BlogStore) Count(ctx context.Context, filter store.BlogFilter) (int64, error) {
	q, ok := filterDoc(filter)
	if !ok {
		return 0, nil
	}
	return s.coll.CountDocuments(ctx, q)
}

func (s *BlogStore) findAndUpdate(ctx context.Context, filter bson.D, update any) (*models.Blog, error) {
	var doc blogDoc
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, afterUpdate()).Decode(&doc); err != nil {
		return nil, notFound(err)
	}
	return doc.model(), nil
}

func (s *BlogStore) Update(ctx context.Context, id string, patch models.BlogPatch) (*models.Blog, error) {
	o, err := oid(id)
	if err != nil {
		return nil, err
	}
	set := bson.D{{Key: "updated_at", Value: s.now()}}
	if patch.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *patch.Title})
	}
	if patch.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *patch.Content})
	}
	if patch.Image != nil {
		set = append(set, bson.E{Key: "image", Value: *patch.Image})
	}
	if patch.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: *patch.Tags})
	}
	return s.findAndUpdate(ctx, bson.D{{Key: "_id", Value: o}}, bson.D{{Key: "$set", Value: set}})
}

func (s *BlogStore) Delete(ctx context.Context, id string) error {
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

func (s *BlogStore) ToggleLike(ctx context.Context, blogID, userID string) (*models.Blog, bool, error) {
	b, err := oid(blogID)
	if err != nil {
		return nil, false, err
	}
	u, err := oid(userID)
	if err != nil {
		return nil, false, err
	}
	var doc blogDoc
	err = s.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: b}}, toggle("likes", u), afterUpdate()).Decode(&doc)
	if err != nil {
		return nil, false, notFound(err)
	}
	return doc.model(), containsOID(doc.Likes, u), nil
}

func (s *BlogStore) AddComment(ctx context.Context, blogID string, comment models.Comment) (*models.Blog, error) {
	b, err := oid(blogID)
	if err != nil {
		return nil, err
	}
	u, err := oid(comment.UserID)
	if err != nil {
		return nil, err
	}
	created := comment.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	doc := commentDoc{
		ID:        primitive.NewObjectID(),
		User:      u,
		Text:      comment.Text,
		CreatedAt: created.UTC().Truncate(time.Millisecond),
	}
	return s.findAndUpdate(ctx,
		bson.D{{Key: "_id", Value: b}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "comments", Value: doc}}}},
	)
}

func commentFilter(blogID, commentID string) (bson.D, primitive.ObjectID, error) {
	b, err := oid(blogID)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	c, err := oid(commentID)
	if err != nil {
		return nil, primitive.NilObjectID, err
	}
	return bson.D{{Key: "_id", Value: b}, {Key: "comments._id", Value: c}}, c, nil
}

func (s *BlogStore) UpdateComment(ctx context.Context, blogID, commentID, text string) (*models.Blog, error) {
	filter, _, err := commentFilter(blogID, commentID)
	if err != nil {
		return nil, err
	}
	return s.findAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: bson.D{{Key: "comments.$.text", Value: text}}}})
}

func (s *BlogStore) DeleteComment(ctx context.Context, blogID, commentID string) (*models.Blog, error) {
	filter, c, err := commentFilter(blogID, commentID)
	if err != nil {
		return nil, err
	}
	return s.findAndUpdate(ctx, filter, bson.D{{Key: "$pull", Value: bson.D{
		{Key: "comments", Value: bson.D{{Key: "_id", Value: c}}},
	}}})
}

// AddReport pushes the report only when the user has none on the blog, in
// one conditional update.
func (s *BlogStore) AddReport(ctx context.Context, blogID string, report models.Report) error {
	b, err := oid(blogID)
	if err != nil {
		return err
	}
	u, err := oid(report.UserID)
	if err != nil {
		return err
	}
	created := report.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	doc := reportDoc{User: u, Reason: report.Reason, CreatedAt: created.UTC().Truncate(time.Millisecond)}
	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: b}, {Key: "reports.user", Value: bson.D{{Key: "$ne", Value: u}}}},
		bson.D{{Key: "$push", Value: bson.D{{Key: "reports", Value: doc}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: b}})
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrAlreadyReported
}

func (s *BlogStore) DeleteByAuthor(ctx context.Context, authorID string) ([]string, error) {
	a, err := oid(authorID)
	if err != nil {
		return []string{}, nil
	}
	filter := bson.D{{Key: "author", Value: a}}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []string{}, nil
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	if _, err := s.coll.DeleteMany(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}); err != nil {
		return nil, err
	}
	return hexes(ids), nil
}

func (s *BlogStore) PurgeUser(ctx context.Context, userID string) error {
	u, err := oid(userID)
	if err != nil {
		return nil
	}
	_, err = s.coll.UpdateMany(ctx,
		bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "likes", Value: u}},
			bson.D{{Key: "comments.user", Value: u}},
			bson.D{{Key: "reports.user", Value: u}},
		}}},
		bson.D{{Key: "$pull", Value: bson.D{
			{Key: "likes", Value: u},
			{Key: "comments", Value: bson.D{{Key: "user", Value: u}}},
			{Key: "reports", Value: bson.D{{Key: "user", Value: u}}},
		}}},
	)
	return err
}
