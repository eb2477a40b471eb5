package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/loveos/couple-api/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository using MongoDB.
//
// partner_id holds the partner's ObjectID hex, or "" when unlinked. Multi-document
// transactions need a replica set; with transactions disabled WithinTransaction
// runs the callback directly and the service's compensating write applies.
type UserRepository struct {
	client       *mongo.Client
	col          *mongo.Collection
	transactions bool
}

func NewUserRepository(db *mongo.Database, transactions bool) *UserRepository {
	return &UserRepository{
		client:       db.Client(),
		col:          db.Collection(collectionUsers),
		transactions: transactions,
	}
}

type userDocument struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Username          string             `bson:"username"`
	PasswordHash      string             `bson:"password_hash"`
	Role              string             `bson:"role"`
	DisplayName       string             `bson:"display_name"`
	PartnerID         string             `bson:"partner_id"`
	AnniversaryDate   string             `bson:"anniversary_date,omitempty"`
	RelationshipStart string             `bson:"relationship_start,omitempty"`
	CreatedAt         int64              `bson:"created_at"`
	UpdatedAt         int64              `bson:"updated_at"`
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:                d.ID.Hex(),
		Username:          d.Username,
		PasswordHash:      d.PasswordHash,
		Role:              d.Role,
		DisplayName:       d.DisplayName,
		PartnerID:         d.PartnerID,
		AnniversaryDate:   d.AnniversaryDate,
		RelationshipStart: d.RelationshipStart,
		CreatedAt:         unixToTime(d.CreatedAt),
		UpdatedAt:         unixToTime(d.UpdatedAt),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDocument{
		ID:                primitive.NewObjectID(),
		Username:          user.Username,
		PasswordHash:      user.PasswordHash,
		Role:              user.Role,
		DisplayName:       user.DisplayName,
		PartnerID:         user.PartnerID,
		AnniversaryDate:   user.AnniversaryDate,
		RelationshipStart: user.RelationshipStart,
		CreatedAt:         user.CreatedAt.Unix(),
		UpdatedAt:         user.UpdatedAt.Unix(),
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdatePartner is a compare-and-set on partner_id. A missing field counts as
// unlinked.
func (r *UserRepository) UpdatePartner(ctx context.Context, userID, expected, next string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "partner_id": expected}
	if expected == "" {
		filter["partner_id"] = bson.M{"$in": bson.A{"", nil}}
	}
	update := bson.M{"$set": bson.M{
		"partner_id": next,
		"updated_at": time.Now().UTC().Unix(),
	}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update partner: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrLinkConflict
	}
	return nil
}

func (r *UserRepository) ListLinked(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"partner_id": bson.M{"$nin": bson.A{"", nil}}}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list linked users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode linked users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

// WithinTransaction runs fn in a session transaction. Repository calls must use
// the context passed to fn to take part in it.
func (r *UserRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !r.transactions {
		return fn(ctx)
	}

	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// EnsureIndexes creates the unique username index and the partner_id lookup index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "partner_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
