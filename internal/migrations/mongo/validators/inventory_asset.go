package validators

import "go.mongodb.org/mongo-driver/bson"

var InventoryAssetValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"kind",
			"daily_rate_cents",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 120,
			},

			"kind": bson.M{
				"bsonType": "string",
				"enum": []string{
					"villa",
					"car",
					"yacht",
				},
			},

			"daily_rate_cents": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			// Day keys, "2006-01-02". The set grows and shrinks only through
			// $addToSet and $pullAll.
			"blocked_dates": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "string",
					"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
