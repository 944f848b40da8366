package validators

import "go.mongodb.org/mongo-driver/bson"

var MessageValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "booking_id", "sender_id", "body", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "long"},
			"booking_id": bson.M{"bsonType": "long"},
			"sender_id":  bson.M{"bsonType": "long"},
			"body":       bson.M{"bsonType": "string", "minLength": 1, "maxLength": 1000},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var ReviewValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "booking_id", "reviewer_id", "reviewee_id", "rating", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":         bson.M{"bsonType": "long"},
			"booking_id":  bson.M{"bsonType": "long"},
			"reviewer_id": bson.M{"bsonType": "long"},
			"reviewee_id": bson.M{"bsonType": "long"},
			"rating":      bson.M{"bsonType": integer, "minimum": 1, "maximum": 5},
			"comment":     bson.M{"bsonType": "string", "maxLength": 500},
			"created_at":  bson.M{"bsonType": "date"},
		},
	},
}

var NotificationValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "user_id", "type", "title", "read", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "long"},
			"user_id":    bson.M{"bsonType": "long"},
			"type":       bson.M{"bsonType": "string"},
			"title":      bson.M{"bsonType": "string"},
			"body":       bson.M{"bsonType": "string"},
			"event_id":   bson.M{"bsonType": "string"},
			"read":       bson.M{"bsonType": "bool"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
