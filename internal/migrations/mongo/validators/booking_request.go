package validators

import "go.mongodb.org/mongo-driver/bson"

// lineItemSchema is shared by the villa, car and yacht slots. Status is the
// per-item value; the aggregate booking status is derived at read time and
// never persisted.
var lineItemSchema = bson.M{
	"bsonType": "object",
	"required": []string{
		"asset_name",
		"start_time",
		"end_time",
		"price_cents",
		"status",
	},
	"properties": bson.M{
		"asset_name": bson.M{
			"bsonType":  "string",
			"minLength": 2,
			"maxLength": 120,
		},
		"asset_id": bson.M{
			"bsonType":  "string",
			"minLength": 24,
			"maxLength": 24,
		},
		"start_time": bson.M{
			"bsonType": "date",
		},
		"end_time": bson.M{
			"bsonType": "date",
		},
		"price_cents": bson.M{
			"bsonType": "long",
			"minimum":  0,
		},
		"status": bson.M{
			"bsonType": "string",
			"enum": []string{
				"pending",
				"approved",
				"declined",
			},
		},
	},
}

var BookingRequestValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer",
			"grand_total_cents",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"customer": bson.M{
				"bsonType": "object",
				"required": []string{"name", "email"},
				"properties": bson.M{
					"id": bson.M{
						"bsonType":  "string",
						"minLength": 24,
						"maxLength": 24,
					},
					"name": bson.M{
						"bsonType":  "string",
						"minLength": 2,
						"maxLength": 120,
					},
					"email": bson.M{
						"bsonType": "string",
					},
					"phone": bson.M{
						"bsonType": "string",
					},
				},
			},

			"villa": lineItemSchema,
			"car":   lineItemSchema,
			"yacht": lineItemSchema,

			"grand_total_cents": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"notes": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"id", "text", "author", "created_at"},
				},
			},

			"activity": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"id", "action", "author", "created_at"},
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
