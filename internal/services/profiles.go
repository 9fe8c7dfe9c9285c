package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/models"
)

// DocumentStore holds one profile document per identity.
type DocumentStore interface {
	WriteProfile(ctx context.Context, profile *models.Profile) error
	ListProfiles(ctx context.Context) ([]models.Profile, error)
}

// ProfileStore is the Mongo-backed DocumentStore.
type ProfileStore struct {
	col    *mongo.Collection
	logger *zap.Logger
}

func NewProfileStore(db *mongo.Database, logger *zap.Logger) *ProfileStore {
	return &ProfileStore{col: db.Collection(models.ProfilesCollection), logger: logger}
}

// EnsureIndexes configures indexes for the profiles collection.
// Called on startup from main after Mongo has connected.
func (s *ProfileStore) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_created_at"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_email"),
		},
	}

	for _, m := range indexes {
		if _, err := s.col.Indexes().CreateOne(ctx, m); err != nil {
			return fmt.Errorf("create profile index: %w", err)
		}
	}
	return nil
}

// WriteProfile stores the profile under its identity id, replacing any
// document already there.
func (s *ProfileStore) WriteProfile(ctx context.Context, profile *models.Profile) error {
	if profile.Interests == nil {
		profile.Interests = []models.Interest{}
	}

	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": profile.ID}, profile, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// ListProfiles returns every profile, oldest first. A document whose fields
// do not decode is returned with only its id so it still shows up as an
// incomplete entry.
func (s *ProfileStore) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer cur.Close(ctx)

	profiles := []models.Profile{}
	for cur.Next(ctx) {
		var p models.Profile
		if err := cur.Decode(&p); err != nil {
			id, _ := cur.Current.Lookup("_id").StringValueOK()
			s.logger.Warn("profile document did not decode",
				zap.String("profile_id", id),
				zap.Error(err),
			)
			p = models.Profile{ID: id}
		}
		profiles = append(profiles, p)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}
