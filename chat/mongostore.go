package chat

import (
	"context"
	"errors"
	"time"

	"voyagr/db"
	"voyagr/models"
	"voyagr/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore persists conversations in the conversations and
// chatmessages collections.
type MongoStore struct{}

func NewMongoStore() *MongoStore { return &MongoStore{} }

func (s *MongoStore) Create(ctx context.Context, userID, destination, mode string) (*models.Conversation, error) {
	conv := &models.Conversation{
		ConversationID: utils.GenerateRandomString(13),
		UserID:         userID,
		Destination:    destination,
		Mode:           mode,
		CreatedAt:      time.Now(),
	}
	if _, err := db.ConversationsCollection.InsertOne(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *MongoStore) FindByDestination(ctx context.Context, userID, destination string) (*models.Conversation, error) {
	filter := bson.M{
		"user_id":     userID,
		"destination": destination,
		"deleted":     bson.M{"$ne": true},
	}
	opts := options.FindOne().SetSort(bson.M{"created_at": -1})

	var conv models.Conversation
	err := db.ConversationsCollection.FindOne(ctx, filter, opts).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *MongoStore) List(ctx context.Context, userID string) ([]models.Conversation, error) {
	filter := bson.M{"user_id": userID, "deleted": bson.M{"$ne": true}}
	opts := options.Find().SetSort(bson.M{"created_at": -1})

	convs, err := utils.FindAndDecode[models.Conversation](ctx, db.ConversationsCollection, filter, opts)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	return convs, nil
}

func (s *MongoStore) Messages(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	filter := bson.M{"conversationid": conversationID}
	opts := options.Find().SetSort(bson.M{"createdat": 1})

	msgs, err := utils.FindAndDecode[models.ChatMessage](ctx, db.ChatMessagesCollection, filter, opts)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}

func (s *MongoStore) AppendMessage(ctx context.Context, msg models.ChatMessage) error {
	_, err := db.ChatMessagesCollection.InsertOne(ctx, msg)
	return err
}

func (s *MongoStore) UpdateMode(ctx context.Context, conversationID, mode string) error {
	_, err := db.ConversationsCollection.UpdateOne(ctx,
		bson.M{"conversationid": conversationID},
		bson.M{"$set": bson.M{"mode": mode}})
	return err
}

func (s *MongoStore) UpdateTitle(ctx context.Context, conversationID, title string) error {
	_, err := db.ConversationsCollection.UpdateOne(ctx,
		bson.M{"conversationid": conversationID},
		bson.M{"$set": bson.M{"title": title}})
	return err
}

func (s *MongoStore) Delete(ctx context.Context, userID, conversationID string) error {
	res, err := db.ConversationsCollection.UpdateOne(ctx,
		bson.M{"conversationid": conversationID, "user_id": userID},
		bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
