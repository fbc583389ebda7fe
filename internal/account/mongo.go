package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// accountDocument is the stored shape of an account in the users collection.
// _id is an ObjectID; string UUID ids are also read. Documents written before
// the role field existed carry only isAdmin.
type accountDocument struct {
	ID                  any        `bson:"_id"`
	Name                string     `bson:"name"`
	Email               string     `bson:"email"`
	PasswordHash        string     `bson:"password"`
	Role                string     `bson:"role,omitempty"`
	IsAdmin             bool       `bson:"isAdmin"`
	Blocked             bool       `bson:"isBlocked"`
	Address             string     `bson:"address"`
	Phone               string     `bson:"phone"`
	ResetTokenHash      *string    `bson:"resetPasswordToken,omitempty"`
	ResetTokenExpiresAt *time.Time `bson:"resetPasswordExpire,omitempty"`
	CreatedAt           time.Time  `bson:"createdAt"`
	UpdatedAt           time.Time  `bson:"updatedAt"`
}

// MongoStore keeps accounts as documents in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the unique email index and the reset token lookup index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "resetPasswordToken", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create account indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, a *Account) (*Account, error) {
	created := *a
	if created.ID == uuid.Nil {
		created.ID = uuidFromObjectID(primitive.NewObjectID())
	}
	if created.Role == "" {
		created.Role = RoleStandard
	}
	doc := toDocument(&created)
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return fromDocument(doc)
}

func (s *MongoStore) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.findOne(ctx, bson.M{"_id": documentID(id)})
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoStore) GetByResetTokenHash(ctx context.Context, tokenHash string) (*Account, error) {
	return s.findOne(ctx, bson.M{"resetPasswordToken": tokenHash})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Account, error) {
	var doc accountDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return fromDocument(&doc)
}

func (s *MongoStore) List(ctx context.Context) ([]*Account, error) {
	cursor, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	var docs []accountDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}

	out := make([]*Account, 0, len(docs))
	for i := range docs {
		a, err := fromDocument(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *MongoStore) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*Account, error) {
	return s.findOneAndSet(ctx, id, profileSet(update))
}

func (s *MongoStore) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) (*Account, error) {
	return s.findOneAndSet(ctx, id, bson.M{"isBlocked": blocked})
}

func (s *MongoStore) findOneAndSet(ctx context.Context, id uuid.UUID, set bson.M) (*Account, error) {
	set["updatedAt"] = time.Now().UTC()

	var doc accountDocument
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": documentID(id)},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return fromDocument(&doc)
}

func (s *MongoStore) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return s.updateOne(ctx, bson.M{"_id": documentID(id)}, bson.M{
		"$set": bson.M{
			"resetPasswordToken":  tokenHash,
			"resetPasswordExpire": expiresAt.UTC(),
			"updatedAt":           time.Now().UTC(),
		},
	})
}

func (s *MongoStore) ClearResetToken(ctx context.Context, id uuid.UUID, tokenHash string) error {
	filter := bson.M{"_id": documentID(id), "resetPasswordToken": tokenHash}
	return s.updateOne(ctx, filter, clearResetUpdate(nil))
}

func (s *MongoStore) CompleteReset(ctx context.Context, id uuid.UUID, tokenHash, passwordHash string) error {
	filter := bson.M{"_id": documentID(id), "resetPasswordToken": tokenHash}
	return s.updateOne(ctx, filter, clearResetUpdate(bson.M{"password": passwordHash}))
}

func (s *MongoStore) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.coll.UpdateMany(ctx,
		bson.M{"resetPasswordExpire": bson.M{"$lt": now.UTC()}},
		clearResetUpdate(nil),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", err)
	}
	return result.ModifiedCount, nil
}

func (s *MongoStore) updateOne(ctx context.Context, filter, update bson.M) error {
	result, err := s.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// clearResetUpdate unsets both reset fields and applies set alongside.
func clearResetUpdate(set bson.M) bson.M {
	if set == nil {
		set = bson.M{}
	}
	set["updatedAt"] = time.Now().UTC()

	return bson.M{
		"$set":   set,
		"$unset": bson.M{"resetPasswordToken": "", "resetPasswordExpire": ""},
	}
}

func profileSet(update ProfileUpdate) bson.M {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Address != nil {
		set["address"] = *update.Address
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.PasswordHash != nil {
		set["password"] = *update.PasswordHash
	}
	return set
}

// documentID is the _id value stored for id.
func documentID(id uuid.UUID) any {
	if oid, ok := objectIDFromUUID(id); ok {
		return oid
	}
	return id.String()
}

func toDocument(a *Account) *accountDocument {
	return &accountDocument{
		ID:                  documentID(a.ID),
		Name:                a.Name,
		Email:               a.Email,
		PasswordHash:        a.PasswordHash,
		Role:                string(a.Role),
		IsAdmin:             a.Role.IsAdmin(),
		Blocked:             a.Blocked,
		Address:             a.Address,
		Phone:               a.Phone,
		ResetTokenHash:      a.ResetTokenHash,
		ResetTokenExpiresAt: a.ResetTokenExpiresAt,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func fromDocument(doc *accountDocument) (*Account, error) {
	var id uuid.UUID
	switch v := doc.ID.(type) {
	case primitive.ObjectID:
		id = uuidFromObjectID(v)
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid account id %q: %w", v, err)
		}
		id = parsed
	default:
		return nil, fmt.Errorf("invalid account id of type %T", doc.ID)
	}

	role, err := documentRole(doc)
	if err != nil {
		return nil, err
	}

	return &Account{
		ID:                  id,
		Name:                doc.Name,
		Email:               doc.Email,
		PasswordHash:        doc.PasswordHash,
		Role:                role,
		Blocked:             doc.Blocked,
		Address:             doc.Address,
		Phone:               doc.Phone,
		ResetTokenHash:      doc.ResetTokenHash,
		ResetTokenExpiresAt: doc.ResetTokenExpiresAt,
		CreatedAt:           doc.CreatedAt,
		UpdatedAt:           doc.UpdatedAt,
	}, nil
}

// documentRole prefers the role field and falls back to isAdmin.
func documentRole(doc *accountDocument) (Role, error) {
	if doc.Role == "" {
		if doc.IsAdmin {
			return RoleAdmin, nil
		}
		return RoleStandard, nil
	}

	role := Role(doc.Role)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q on account %v", doc.Role, doc.ID)
	}
	return role, nil
}
