package database

import (
	"context"
	"log"
	"time"

	"medibot/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoClient is the global MongoDB client instance. It stays nil when the
// connection fails; the conversation archive is then disabled, which only
// costs historical turn counts, never the conversation itself.
var MongoClient *mongo.Client

// InitDB initializes the MongoDB connection.
func InitDB() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.AppConfig.DatabaseURL)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Printf("MongoDB connect failed, conversation archive disabled: %v", err)
		return
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Printf("MongoDB ping failed, conversation archive disabled: %v", err)
		return
	}
	MongoClient = client
	log.Println("Connected to MongoDB successfully!")
}
