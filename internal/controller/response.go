package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"ecommerce-backend/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator.
// Field errors are reported under their json (or form) names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, key := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(key), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return f.Name
		})
		err := v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
			return primitive.IsValidObjectID(fl.Field().String())
		})
		if err != nil {
			panic(fmt.Sprintf("registering objectid validator: %v", err))
		}
	})
}

func ok(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// fail writes the error envelope. Unexpected errors are logged and hidden
// behind a generic message.
func fail(c *gin.Context, log *zap.Logger, err error) {
	code := apperr.CodeOf(err)
	meta := apperr.MetadataFor(code)
	body := gin.H{"success": false, "message": meta.PublicMessage}

	if e := apperr.As(err); e != nil && code != apperr.CodeUnexpected {
		body["message"] = e.Message()
		if e.Reason() != "" {
			body["reason"] = e.Reason()
		}
	} else {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.JSON(meta.HTTPStatus, body)
}

// badRequest reports binding and validation failures.
func badRequest(c *gin.Context, err error) {
	body := gin.H{"success": false, "message": "invalid request body"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = validationMessage(fe)
		}
		body["message"] = "validation failed"
		body["errors"] = details
	}
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, body)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "objectid":
		return "must be a valid id"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}
	return "is invalid"
}

// bindOptionalJSON accepts an empty body for endpoints whose payload is
// entirely optional.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
