package catalogsvc

import (
	"errors"
)

var (
	// ErrCatalogUnavailable the backing file cannot be read.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrCatalogMalformed the backing file cannot be parsed into categories and recipients.
	ErrCatalogMalformed = errors.New("catalog malformed")
)

// Category is a named group of recipients, i.e: a course.
type Category struct {
	Name       string      `json:"name" validate:"required"`
	Code       string      `json:"code" validate:"required"`
	Recipients []Recipient `json:"recipients" validate:"min=1,dive"`
}

// Recipient is one addressable target. Email is not re-validated here, only required.
type Recipient struct {
	Salutation string `json:"salutation" validate:"required"`
	Email      string `json:"email" validate:"required"`
}

// FindRecipient returns the first recipient with the email, comparison is exact.
func (c Category) FindRecipient(email string) (Recipient, bool) {
	for _, r := range c.Recipients {
		if r.Email == email {
			return r, true
		}
	}

	return Recipient{}, false
}

func (c Category) clone() Category {
	recipients := make([]Recipient, len(c.Recipients))
	copy(recipients, c.Recipients)

	return Category{
		Name:       c.Name,
		Code:       c.Code,
		Recipients: recipients,
	}
}
