package validators

import "go.mongodb.org/mongo-driver/bson"

// TripValidator also enforces 0 <= available_seats; the upper bound against
// seats_total is kept by the repository updates.
var TripValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"driver_id",
			"departure_location",
			"arrival_location",
			"departure_time",
			"seats_total",
			"available_seats",
			"price",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":       bson.M{"bsonType": "long"},
			"driver_id": bson.M{"bsonType": "long"},

			"departure_location": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},
			"arrival_location": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"departure_time": bson.M{"bsonType": "date"},

			"seats_total": bson.M{
				"bsonType": integer,
				"minimum":  1,
				"maximum":  50,
			},
			"available_seats": bson.M{
				"bsonType": integer,
				"minimum":  0,
				"maximum":  50,
			},

			"price": bson.M{
				"bsonType": bson.A{"double", "int", "long"},
				"minimum":  0,
			},

			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
