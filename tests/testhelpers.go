package tests

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prefeitura-rio/app-social/internal/config"
	"github.com/prefeitura-rio/app-social/internal/redisclient"
)

// TestContainers holds references to test containers
type TestContainers struct {
	MongoContainer *mongodb.MongoDBContainer
	RedisContainer *redis.RedisContainer
	MongoDB        *mongo.Database
	Redis          *redisclient.Client
	Cleanup        func()
}

// SetupTestContainers starts MongoDB and Redis containers for testing
func SetupTestContainers(t *testing.T) *TestContainers {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx,
		"mongo:7.0",
		mongodb.WithUsername("root"),
		mongodb.WithPassword("password"),
	)
	require.NoError(t, err, "Failed to start MongoDB container")

	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
	)
	require.NoError(t, err, "Failed to start Redis container")

	mongoURI, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get MongoDB connection string")

	redisURI, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err, "Failed to get Redis connection string")

	clientOptions := options.Client().ApplyURI(mongoURI)
	mongoClient, err := mongo.Connect(ctx, clientOptions)
	require.NoError(t, err, "Failed to connect to MongoDB")

	err = mongoClient.Ping(ctx, nil)
	require.NoError(t, err, "Failed to ping MongoDB")

	database := mongoClient.Database("social_test")

	redisOptions, err := goredis.ParseURL(redisURI)
	require.NoError(t, err, "Failed to parse Redis connection string")
	redisClient := goredis.NewClient(redisOptions)
	require.NoError(t, redisClient.Ping(ctx).Err(), "Failed to ping Redis")

	if config.AppConfig == nil {
		config.AppConfig = &config.Config{}
	}
	config.AppConfig.MongoURI = mongoURI
	config.AppConfig.MongoDatabase = "social_test"
	config.AppConfig.RedisURI = redisOptions.Addr
	config.AppConfig.ApplicationCollection = "applications"
	config.AppConfig.DraftTTL = time.Hour

	config.MongoDB = database

	cleanup := func() {
		if redisClient != nil {
			redisClient.Close()
		}
		if mongoClient != nil {
			mongoClient.Disconnect(context.Background())
		}
		if mongoContainer != nil {
			mongoContainer.Terminate(ctx)
		}
		if redisContainer != nil {
			redisContainer.Terminate(ctx)
		}
	}

	return &TestContainers{
		MongoContainer: mongoContainer,
		RedisContainer: redisContainer,
		MongoDB:        database,
		Redis:          redisclient.NewClient(redisClient),
		Cleanup:        cleanup,
	}
}

// CleanupDatabase drops all collections in the test database
func CleanupDatabase(t *testing.T, db *mongo.Database) {
	ctx := context.Background()
	collections, err := db.ListCollectionNames(ctx, map[string]interface{}{})
	require.NoError(t, err, "Failed to list collections")

	for _, collection := range collections {
		err := db.Collection(collection).Drop(ctx)
		require.NoError(t, err, "Failed to drop collection "+collection)
	}
}
