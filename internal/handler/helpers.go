package handler

import (
	"net/http"
	"reflect"

	"stocktrack/internal/apierror"
	"stocktrack/internal/middleware"
	"stocktrack/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// bindQuery binds and validates query-string filters.
func bindQuery(c *gin.Context, filter interface{}) bool {
	if err := c.ShouldBindQuery(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query parameters: "+err.Error()))
		return false
	}
	if err := validate.Struct(filter); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// parseIDParam parses a uuid path parameter, writing the 400 response itself
// on failure.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// currentActor builds the service actor from the authenticated JWT claims.
func currentActor(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return service.Actor{}
	}
	actor := service.Actor{}
	if id, err := uuid.Parse(claims.UserID); err == nil {
		actor.UserID = id
	}
	if claims.VerticalID != nil {
		if id, err := uuid.Parse(*claims.VerticalID); err == nil {
			actor.VerticalID = &id
		}
	}
	return actor
}

// writeError maps typed domain errors onto HTTP status codes. Anything
// untyped is a 500 routed through the error middleware, which logs it.
func writeError(c *gin.Context, err error) {
	switch {
	case apierror.IsNotFound(err):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case apierror.IsValidation(err):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case apierror.IsInvalidTransition(err), apierror.IsConflict(err), apierror.IsConcurrency(err):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case apierror.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("internal server error"))
	}
}
