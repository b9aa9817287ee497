package validators

import "go.mongodb.org/mongo-driver/bson"

// RoomNightValidator guards the claim documents. Their _id is
// "<room_id>|YYYY-MM-DD", which is what makes a double claim fail.
var RoomNightValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "room_id", "night", "booking_id", "created_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
				"pattern":  `^.+\|[0-9]{4}-[0-9]{2}-[0-9]{2}$`,
			},
			"room_id":    bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},
			"night":      bson.M{"bsonType": "date"},
			"booking_id": bson.M{"bsonType": "string", "minLength": 1},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
