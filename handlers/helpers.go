package handlers

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"YourWheels/apperr"
	"YourWheels/middleware"
	"YourWheels/utils"
)

// bind decodes the request body into req and runs its validate tags.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.E(apperr.Validation, "Invalid request body", err)
	}
	return c.Validate(req)
}

func pathID(c echo.Context, param, field string) (primitive.ObjectID, error) {
	return utils.ParseObjectID(c.Param(param), field)
}

func callerID(c echo.Context) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(middleware.CallerID(c))
	if err != nil {
		return primitive.NilObjectID, apperr.E(apperr.Unauthorized, "Invalid token subject", err)
	}
	return id, nil
}

// self parses an account id taken from a request body and checks that it is
// the caller's own.
func self(c echo.Context, raw, field string) (primitive.ObjectID, error) {
	if utils.CanonicalID(raw) != utils.CanonicalID(middleware.CallerID(c)) {
		return primitive.NilObjectID, apperr.E(apperr.Forbidden, "You can only act on your own account", nil)
	}
	return utils.ParseObjectID(raw, field)
}

func ok(c echo.Context, code int, fields echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	return c.JSON(code, body)
}
