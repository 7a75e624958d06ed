package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/coachingcourse/course-service/internal/errors"
	"github.com/coachingcourse/course-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct tag validation with quiz business rules
type Validator struct {
	structValidator *validator.Validate
	quizValidator   *QuizValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		quizValidator:   NewQuizValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	err := v.ValidateStruct(s)
	if err == nil {
		return nil
	}
	if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
		return errs
	}
	return err
}

// Quiz returns the quiz validator
func (v *Validator) Quiz() *QuizValidator {
	return v.quizValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("course_level", validateCourseLevel)
	validate.RegisterValidation("user_role", oneOf(models.RoleStudent, models.RoleAdmin))
	validate.RegisterValidation("user_status", oneOf(models.UserStatusActive, models.UserStatusInactive))
	validate.RegisterValidation("resource_type", oneOf(
		models.ResourcePDF,
		models.ResourceVideo,
		models.ResourceLink,
		models.ResourceDocument,
	))
	validate.RegisterValidation("subscription_status", oneOf(
		models.SubscriptionActive,
		models.SubscriptionExpired,
		models.SubscriptionCancelled,
	))

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateCourseLevel(fl validator.FieldLevel) bool {
	level := fl.Field().Int()
	return level >= models.MinCourseLevel && level <= models.MaxCourseLevel
}

func oneOf[T ~string](valid ...T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, v := range valid {
			if string(v) == value {
				return true
			}
		}
		return false
	}
}
