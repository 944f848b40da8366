package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "name", "email", "password_hash", "created_at"},
		"additionalProperties": true,
		"properties": bson.M{
			"_id":           bson.M{"bsonType": "long"},
			"name":          bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"email":         bson.M{"bsonType": "string", "maxLength": 254},
			"phone":         bson.M{"bsonType": "string"},
			"password_hash": bson.M{"bsonType": "string"},
			"created_at":    bson.M{"bsonType": "date"},
		},
	},
}
