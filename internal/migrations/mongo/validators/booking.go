package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"room_id",
			"customer_name",
			"customer_age",
			"customer_address",
			"customer_mobile_no",
			"customer_national_id",
			"check_in_date",
			"check_out_date",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			// hex ObjectID stored as a string
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"customer_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"customer_age": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  18,
				"maximum":  130,
			},

			"customer_address": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 300,
			},

			"customer_mobile_no": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]{10}$",
			},

			"customer_national_id": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]{12}$",
			},

			"check_in_date": bson.M{
				"bsonType": "date",
			},

			"check_out_date": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"cancelled",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
