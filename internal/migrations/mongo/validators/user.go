package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"email",
			"password_hash",
			"role",
			"first_name",
			"last_name",
			"phone",
			"is_active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"email": bson.M{
				"bsonType":  "string",
				"maxLength": 254,
				"pattern":   "^[^@\\s]+@[^@\\s]+$",
			},

			"password_hash": bson.M{
				"bsonType":  "string",
				"minLength": 59,
			},

			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"user", "admin"},
			},

			"first_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"last_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"phone": bson.M{
				"bsonType": "string",
				"pattern":  "^[0-9]{10}$",
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},

			"last_login": bson.M{
				"bsonType": "date",
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
