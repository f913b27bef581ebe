package data

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MessagesStore provides message database operations.
type MessagesStore struct {
	// coll is the "messages" collection; every method below reads or writes it
	coll *mongo.Collection
}

// NewMessagesStore returns a MessagesStore using given collection.
func NewMessagesStore(coll *mongo.Collection) *MessagesStore {
	return &MessagesStore{coll: coll}
}

// SaveMessage inserts msg as unread and stamps its id and creation time.
func (m *MessagesStore) SaveMessage(ctx context.Context, msg *Message) (*Message, error) {
	// Mongo stores dates at millisecond resolution; truncate so the returned
	// value equals what a later read yields.
	msg.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	msg.IsRead = false // every message starts unread

	result, err := m.coll.InsertOne(ctx, msg)
	if err != nil {
		return nil, storeErr(err)
	}
	// InsertedID is interface{}; assert to ObjectID
	msg.ID = result.InsertedID.(bson.ObjectID)
	return msg, nil
}

// pairFilter matches messages exchanged between a and b in either direction.
func pairFilter(a, b bson.ObjectID) bson.M {
	return bson.M{
		"$or": bson.A{
			bson.M{"sender": a, "receiver": b},
			bson.M{"sender": b, "receiver": a},
		},
	}
}

// GetConversation returns every message between viewer and counterpart,
// oldest first. It does not change read state.
func (m *MessagesStore) GetConversation(ctx context.Context, viewer, counterpart bson.ObjectID) ([]*Message, error) {
	// _id breaks ties between messages created in the same millisecond
	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := m.coll.Find(ctx, pairFilter(viewer, counterpart), opts)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	// non-nil so an empty conversation encodes as []
	messages := []*Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, storeErr(err)
	}
	return messages, nil
}

// MarkConversationRead flips every unread message sent by counterpart to
// viewer to read, returning how many changed. Messages sent by viewer are
// never touched.
func (m *MessagesStore) MarkConversationRead(ctx context.Context, viewer, counterpart bson.ObjectID) (int64, error) {
	filter := bson.M{
		"sender":   counterpart,
		"receiver": viewer,
		"is_read":  false,
	}
	// one UpdateMany for the whole conversation
	res, err := m.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, storeErr(err)
	}
	return res.ModifiedCount, nil
}

// CountUnread returns how many messages addressed to viewer are unread.
func (m *MessagesStore) CountUnread(ctx context.Context, viewer bson.ObjectID) (int64, error) {
	n, err := m.coll.CountDocuments(ctx, bson.M{"receiver": viewer, "is_read": false})
	if err != nil {
		return 0, storeErr(err)
	}
	return n, nil
}

// ListConversations summarizes every counterpart viewer has exchanged
// messages with: the latest message and the number of unread messages sent
// to viewer. Most recent activity first. Profiles are not resolved here.
func (m *MessagesStore) ListConversations(ctx context.Context, viewer bson.ObjectID) ([]*Conversation, error) {
	pipeline := mongo.Pipeline{
		// Stage 1: every message viewer sent or received
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "$or", Value: bson.A{
				bson.D{{Key: "sender", Value: viewer}},
				bson.D{{Key: "receiver", Value: viewer}},
			}},
		}}},

		// Stage 2: newest first so $first below picks the latest message
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}}},

		// Stage 3: one group per counterpart
		bson.D{{Key: "$group", Value: bson.D{
			// counterpart is the receiver when viewer sent, else the sender
			{Key: "_id", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$sender", viewer}}},
				"$receiver",
				"$sender",
			}}}},
			{Key: "last_message", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
			// count only incoming unread messages
			{Key: "unread_count", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$and", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$receiver", viewer}}},
					bson.D{{Key: "$eq", Value: bson.A{"$is_read", false}}},
				}}},
				1,
				0,
			}}}}}},
		}}},

		// Stage 4: most recent activity first, counterpart id as tiebreak
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "last_message.created_at", Value: -1},
			{Key: "_id", Value: 1},
		}}},
	}

	cursor, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storeErr(err)
	}
	defer cursor.Close(ctx)

	conversations := []*Conversation{}
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, storeErr(err)
	}
	return conversations, nil
}
