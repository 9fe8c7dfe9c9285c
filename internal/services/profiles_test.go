package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/database"
	"github.com/AnshRaj112/profiledir-backend/internal/models"
)

func TestProfileStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}
	ctx := context.Background()

	client, db, err := database.ConnectMongo(ctx, uri, "profiledir_test_"+uuid.NewString()[:8], zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = database.DisconnectMongo(client)
	})

	store := NewProfileStore(db, zap.NewNop())
	require.NoError(t, store.EnsureIndexes(ctx))

	pic := "https://res.cloudinary.com/demo/image/upload/profileImages/a.png"
	full := &models.Profile{
		ID:             uuid.NewString(),
		CreatedAt:      time.Now().UTC(),
		FullName:       "Ada Lovelace",
		Email:          "ada@example.com",
		Phone:          "555-0100",
		Gender:         models.GenderFemale,
		Interests:      []models.Interest{models.InterestNews, models.InterestCooking},
		ProfilePicture: &pic,
	}
	require.NoError(t, store.WriteProfile(ctx, full))

	// A document left behind by an interrupted registration.
	_, err = db.Collection(models.ProfilesCollection).InsertOne(ctx, bson.M{
		"_id":        uuid.NewString(),
		"created_at": time.Now().UTC().Add(time.Minute),
		"fullname":   42,
	})
	require.NoError(t, err)

	profiles, err := store.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, full.ID, profiles[0].ID)
	assert.Equal(t, full.Interests, profiles[0].Interests)
	require.NotNil(t, profiles[0].ProfilePicture)
	assert.Equal(t, pic, *profiles[0].ProfilePicture)
	assert.False(t, profiles[0].Incomplete())

	assert.NotEmpty(t, profiles[1].ID)
	assert.True(t, profiles[1].Incomplete())
}
