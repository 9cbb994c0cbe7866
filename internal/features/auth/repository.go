package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository handles database interactions for the auth feature. It doubles
// as the candidate directory consumed by validator assignment.
type Repository struct {
	collection *mongo.Collection
}

// NewRepository initializes the repository and creates necessary indexes
func NewRepository(db *mongo.Database) *Repository {
	collection := db.Collection("users")

	// Create indexes
	_, _ = collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})

	return &Repository{collection: collection}
}

// CreateUser inserts a new user into the database
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	now := time.Now()
	user.JoinedAt = now
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Wrap so we can see which key was duplicated in logs
			return fmt.Errorf("user duplicate key error: %w", err)
		}
		return err
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}

	return nil
}

// GetUserByGoogleID finds a user by their Google ID
func (r *Repository) GetUserByGoogleID(ctx context.Context, googleID string) (*User, error) {
	var user User
	err := r.collection.FindOne(ctx, bson.M{"googleId": googleID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // Not found is not an error here
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail finds a user by their email address
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID finds a user by their MongoDB ID
func (r *Repository) GetUserByID(ctx context.Context, userID string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errors.New("invalid user id format")
	}

	var user User
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs fetches multiple users in one query
func (r *Repository) GetUsersByIDs(ctx context.Context, userIDs []primitive.ObjectID) ([]User, error) {
	if len(userIDs) == 0 {
		return []User{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListUserIDs returns the ids of every user except the excluded one. This is
// the candidate directory for validator assignment; the full scan is fine at
// current scale but will not hold up forever.
func (r *Repository) ListUserIDs(ctx context.Context, excluding primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$ne": excluding}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

// UpdateUser updates specific fields of a user
func (r *Repository) UpdateUser(ctx context.Context, userID primitive.ObjectID, updates map[string]interface{}) error {
	updates["updatedAt"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": updates})
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("user not found")
	}

	return nil
}

// UsernameExists checks if a username is already taken
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IncrementCompletedCount bumps the user's cleared-challenge counter
func (r *Repository) IncrementCompletedCount(ctx context.Context, userID primitive.ObjectID, delta int) error {
	update := bson.M{
		"$inc": bson.M{"completedCount": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return errors.New("user not found")
	}

	return nil
}

// BlockUser adds a user to the caller's block list
func (r *Repository) BlockUser(ctx context.Context, userID, blockedID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"blockedUsers": blockedID},
			"$set":      bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}

// FCMTokensForUsers returns registered device tokens for push fan-out
func (r *Repository) FCMTokensForUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	if len(userIDs) == 0 {
		return map[primitive.ObjectID]string{}, nil
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1, "fcmToken": 1})
	cursor, err := r.collection.Find(ctx, bson.M{
		"_id":      bson.M{"$in": userIDs},
		"fcmToken": bson.M{"$nin": bson.A{"", nil}},
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID       primitive.ObjectID `bson:"_id"`
		FCMToken string             `bson:"fcmToken"`
	}
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	tokens := make(map[primitive.ObjectID]string, len(docs))
	for _, d := range docs {
		tokens[d.ID] = d.FCMToken
	}
	return tokens, nil
}
