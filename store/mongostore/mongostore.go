// Package mongostore implements the stores on MongoDB. Set-membership
// toggles run as single update pipelines so concurrent toggles on the same
// document serialize on the server.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cppla/inkpress/store"
)

const (
	usersCollection = "users"
	blogsCollection = "blogs"
)

// DB holds the client and database handle.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// Connect dials uri, pings the server and makes sure indexes exist.
func Connect(ctx context.Context, uri, database string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	d := &DB{client: client, db: client.Database(database), now: time.Now}
	if err := d.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return d, nil
}

// EnsureIndexes creates the indexes the queries rely on.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	_, err := d.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	_, err = d.db.Collection(blogsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author", Value: 1}}},
		{Keys: bson.D{{Key: "likes", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create blogs indexes: %w", err)
	}
	return nil
}

// Users returns the user store.
func (d *DB) Users() store.UserStore {
	return &UserStore{coll: d.db.Collection(usersCollection), now: d.timestamp}
}

// Blogs returns the blog store.
func (d *DB) Blogs() store.BlogStore {
	return &BlogStore{coll: d.db.Collection(blogsCollection), now: d.timestamp}
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// timestamp matches the precision Mongo stores.
func (d *DB) timestamp() time.Time {
	return d.now().UTC().Truncate(time.Millisecond)
}

func oid(id string) (primitive.ObjectID, error) {
	o, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return o, nil
}

// oids converts ids, dropping malformed ones.
func oids(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if o, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, o)
		}
	}
	return out
}

func hexes(in []primitive.ObjectID) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		out = append(out, o.Hex())
	}
	return out
}

func containsOID(in []primitive.ObjectID, v primitive.ObjectID) bool {
	for _, o := range in {
		if o == v {
			return true
		}
	}
	return false
}

// toggle builds an update pipeline that removes v from the array field when
// present and appends it otherwise. A missing field counts as empty.
func toggle(field string, v primitive.ObjectID, extra ...bson.E) mongo.Pipeline {
	arr := bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.A{}}}}
	set := bson.D{{Key: field, Value: bson.D{{Key: "$cond", Value: bson.D{
		{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{v, arr}}}},
		{Key: "then", Value: bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: arr},
			{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", v}}}},
		}}}},
		{Key: "else", Value: bson.D{{Key: "$concatArrays", Value: bson.A{arr, bson.A{v}}}}},
	}}}}}
	set = append(set, extra...)
	return mongo.Pipeline{{{Key: "$set", Value: set}}}
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
