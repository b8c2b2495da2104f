package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/EduCore-2026/quiz-platform/internal/models"
)

// ValidationError represents a single field failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with the platform's custom rules.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := &Validator{validate: validator.New()}
	v.registerRules()
	return v
}

// Validate runs struct-tag validation and returns nil when the value passes.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// ValidateQuizCreate runs struct validation plus the window and question
// rules that tags cannot express.
func (v *Validator) ValidateQuizCreate(req *models.QuizCreateRequest) ValidationErrors {
	errors := v.Validate(req)

	errors = append(errors, validateWindow(req.StartTime, req.EndTime)...)

	for i := range req.Questions {
		errors = append(errors, validateQuestionRules(&req.Questions[i], fmt.Sprintf("questions[%d]", i))...)
	}

	return errors
}

// ValidateQuizUpdate validates a partial update against the stored quiz;
// the window rule applies to the effective (merged) times.
func (v *Validator) ValidateQuizUpdate(req *models.QuizUpdateRequest, existing *models.Quiz) ValidationErrors {
	errors := v.Validate(req)

	start := existing.StartTime
	end := existing.EndTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	errors = append(errors, validateWindow(start, end)...)

	return errors
}

// ValidateQuestionCreate validates a standalone question payload.
func (v *Validator) ValidateQuestionCreate(req *models.QuestionCreateRequest) ValidationErrors {
	errors := v.Validate(req)
	errors = append(errors, validateQuestionRules(req, "")...)
	return errors
}

// ValidateQuestion re-checks a stored question after a partial update, so a
// new answer cannot drift outside the (possibly also new) option set.
func (v *Validator) ValidateQuestion(q *models.Question) ValidationErrors {
	options, err := q.OptionList()
	if err != nil {
		return ValidationErrors{{
			Field:   "options",
			Message: "must be a JSON array of strings",
			Rule:    "options_content",
		}}
	}
	req := models.QuestionCreateRequest{
		Text:       q.Text,
		Options:    options,
		Answer:     q.Answer,
		Difficulty: q.Difficulty,
		Points:     q.Points,
	}
	return validateQuestionRules(&req, "")
}

func (v *Validator) registerRules() {
	v.validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		level := models.DifficultyLevel(fl.Field().String())
		switch level {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard, "":
			return true
		}
		return false
	})

	v.validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 100
	})

	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})
}

func validateWindow(start, end time.Time) ValidationErrors {
	if start.Before(end) {
		return nil
	}
	return ValidationErrors{{
		Field:   "start_time",
		Message: "must be before end_time",
		Value:   start,
		Rule:    "quiz_window",
	}}
}

func validateQuestionRules(req *models.QuestionCreateRequest, prefix string) ValidationErrors {
	var errors ValidationErrors
	field := func(name string) string {
		if prefix == "" {
			return name
		}
		return prefix + "." + name
	}

	if n := len(req.Options); n < 2 || n > 6 {
		errors = append(errors, ValidationError{
			Field:   field("options"),
			Message: "must contain between 2 and 6 options",
			Value:   n,
			Rule:    "options_count",
		})
	}

	seen := make(map[string]struct{}, len(req.Options))
	for i, opt := range req.Options {
		if strings.TrimSpace(opt) == "" {
			errors = append(errors, ValidationError{
				Field:   field(fmt.Sprintf("options[%d]", i)),
				Message: "option cannot be empty",
				Rule:    "options_content",
			})
		}
		if _, dup := seen[opt]; dup {
			errors = append(errors, ValidationError{
				Field:   field(fmt.Sprintf("options[%d]", i)),
				Message: "duplicate option",
				Value:   opt,
				Rule:    "options_content",
			})
		}
		seen[opt] = struct{}{}
	}

	// The correct answer must be one of the options, compared verbatim.
	if _, ok := seen[req.Answer]; !ok && req.Answer != "" {
		errors = append(errors, ValidationError{
			Field:   field("answer"),
			Message: "must match one of the options exactly",
			Value:   req.Answer,
			Rule:    "answer_in_options",
		})
	}

	return errors
}

func toValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}
	for _, fe := range fieldErrors {
		errors = append(errors, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errors
}

func errorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "points_range":
		return "must be between 1 and 100"
	case "difficulty_level":
		return "must be easy, medium, or hard"
	case "user_role":
		return "must be a valid user role"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
