package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = bson.A{"int", "long"}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"trip_id",
			"user_id",
			"seats",
			"status",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":     bson.M{"bsonType": "long"},
			"trip_id": bson.M{"bsonType": "long"},
			"user_id": bson.M{"bsonType": "long"},

			"seats": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  50,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"rejected",
					"cancelled",
				},
			},

			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
