package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/evently/webhook-service/internal/database"
)

type mongoUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	ClerkID   string             `bson:"clerkId"`
	Email     string             `bson:"email"`
	Username  string             `bson:"username"`
	FirstName string             `bson:"firstName"`
	LastName  string             `bson:"lastName"`
	Photo     string             `bson:"photo"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (m mongoUser) toUser() *User {
	return &User{
		ID:        m.ID.Hex(),
		ClerkID:   m.ClerkID,
		Email:     m.Email,
		Username:  m.Username,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Photo:     m.Photo,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type mongoRepository struct {
	db *database.Provider[*mongo.Database]
}

// NewMongoRepository returns a repository that resolves its database handle
// from db on every call, so the first request triggers the connection.
func NewMongoRepository(db *database.Provider[*mongo.Database]) Repository {
	return &mongoRepository{db: db}
}

func (r *mongoRepository) users(ctx context.Context) (*mongo.Collection, error) {
	db, err := r.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(database.UsersCollection), nil
}

func (r *mongoRepository) Create(ctx context.Context, u User) (*User, error) {
	coll, err := r.users(ctx)
	if err != nil {
		return nil, err
	}

	doc := mongoUser{
		ID:        primitive.NewObjectID(),
		ClerkID:   u.ClerkID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Photo:     u.Photo,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toUser(), nil
}

func (r *mongoRepository) GetByClerkID(ctx context.Context, clerkID string) (*User, error) {
	coll, err := r.users(ctx)
	if err != nil {
		return nil, err
	}

	var doc mongoUser
	err = coll.FindOne(ctx, bson.M{"clerkId": clerkID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toUser(), nil
}

func (r *mongoRepository) Update(ctx context.Context, clerkID string, update Update, at time.Time) (*User, error) {
	coll, err := r.users(ctx)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"firstName": update.FirstName,
		"lastName":  update.LastName,
		"username":  update.Username,
		"photo":     update.Photo,
		"updatedAt": at,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoUser
	err = coll.FindOneAndUpdate(ctx, bson.M{"clerkId": clerkID}, bson.M{"$set": set}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toUser(), nil
}

func (r *mongoRepository) Delete(ctx context.Context, clerkID string) (*User, error) {
	coll, err := r.users(ctx)
	if err != nil {
		return nil, err
	}

	var doc mongoUser
	err = coll.FindOneAndDelete(ctx, bson.M{"clerkId": clerkID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return doc.toUser(), nil
}
