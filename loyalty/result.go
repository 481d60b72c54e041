package loyalty

import (
	"bytes"
	"encoding/json"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// DuplicateCustomerMessage replaces the server text when the customer is
// already registered.
const DuplicateCustomerMessage = "Dit e-mailadres is al bij ons geregistreerd. Ben je je inloggegevens vergeten? Vraag een nieuw wachtwoord aan via de smartphone app."

// Card is the loyalty card created for a new customer.
type Card struct {
	Barcode   string `json:"barcode"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
}

// Debug carries the raw exchange when the client runs in debug mode.
type Debug struct {
	StatusCode   int    `json:"statusCode"`
	ResponseData string `json:"responseData"`
	Token        string `json:"token"`
}

// Result is what AddCustomer reports back. Err holds the internal failure,
// if any, behind a degraded outcome.
type Result struct {
	Status     Status `json:"status"`
	StatusCode int    `json:"statusCode,omitempty"`
	Message    string `json:"message,omitempty"`
	Card       *Card  `json:"card,omitempty"`
	Debug      *Debug `json:"debug,omitempty"`
	Err        error  `json:"-"`
}

// Customer is the caller's payload, sent to the API as-is.
type Customer map[string]any

// BirthDate returns the birthDate field (YYYY-MM-DD) or "".
func (c Customer) BirthDate() string {
	s, _ := c["birthDate"].(string)
	return s
}

// looseString accepts a JSON string or number.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

type customerResponse struct {
	Barcode   looseString `json:"barcode"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	Error     struct {
		Details struct {
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}
