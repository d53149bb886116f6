// Package notify implements the notification dispatcher: it validates a
// notification request, renders the email once and sends one copy per
// recipient so addressees never see each other.
package notify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"help-from-founder-go/internal/models"
)

// ErrInvalidPayload wraps every validation failure of a request body.
var ErrInvalidPayload = errors.New("invalid notification payload")

// Notification is a parsed request: exactly one of NewIssue and NewResponse is set.
type Notification struct {
	NewIssue    *models.NewIssueNotification
	NewResponse *models.NewResponseNotification
}

// Base returns the shared fields of whichever variant is set.
func (n Notification) Base() models.NotificationBase {
	if n.NewIssue != nil {
		return n.NewIssue.NotificationBase
	}
	if n.NewResponse != nil {
		return n.NewResponse.NotificationBase
	}
	return models.NotificationBase{}
}

// envelope is decoded first to discriminate on type and detect the legacy shape.
type envelope struct {
	Type         models.NotificationType `json:"type"`
	FounderEmail string                  `json:"founderEmail"`
	Recipients   json.RawMessage         `json:"recipients"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParsePayload decodes and validates a request body. Unknown fields are
// rejected so malformed shapes fail before anything is sent.
func ParsePayload(body []byte) (Notification, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Notification{}, fmt.Errorf("%w: body is not a JSON object: %v", ErrInvalidPayload, err)
	}
	if env.Type == "" {
		return Notification{}, fmt.Errorf("%w: field \"type\" is required", ErrInvalidPayload)
	}
	if len(env.Recipients) == 0 && env.FounderEmail != "" {
		return Notification{}, fmt.Errorf("%w: field \"recipients\" is required; \"founderEmail\" is no longer accepted", ErrInvalidPayload)
	}

	var n Notification
	var target any
	switch env.Type {
	case models.NotificationNewIssue:
		n.NewIssue = &models.NewIssueNotification{}
		target = n.NewIssue
	case models.NotificationNewResponse:
		n.NewResponse = &models.NewResponseNotification{}
		target = n.NewResponse
	default:
		return Notification{}, fmt.Errorf("%w: field \"type\" must be %q or %q, got %q",
			ErrInvalidPayload, models.NotificationNewIssue, models.NotificationNewResponse, env.Type)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := validate.Struct(target); err != nil {
		return Notification{}, fmt.Errorf("%w: %s", ErrInvalidPayload, describeValidation(err))
	}
	return n, nil
}

// describeValidation names the first failing field by its JSON path.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	// Embedded base fields carry the embedded type name in the namespace.
	field = strings.TrimPrefix(field, "NotificationBase.")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field %q is required", field)
	case "min":
		return fmt.Sprintf("field %q must not be empty", field)
	case "email":
		return fmt.Sprintf("field %q must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("field %q must be one of [%s]", field, fe.Param())
	}
	return fmt.Sprintf("field %q failed %q validation", field, fe.Tag())
}
