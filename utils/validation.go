package utils

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/apperr"
)

// CanonicalID normalizes an identifier for comparison: ObjectID hex when it
// parses as one, trimmed lower-case text otherwise.
func CanonicalID(id string) string {
	id = strings.TrimSpace(id)
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid.Hex()
	}
	return strings.ToLower(id)
}

func ParseObjectID(id, field string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, apperr.E(apperr.Validation, "Invalid "+field, err)
	}
	return oid, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
