package loyalty

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const duplicateCustomerPrefix = "Customer already exists"

// isDuplicateCustomer is the only way to tell a duplicate registration from
// other rejections: the API has no error code for it, so the message prefix
// is compared case-insensitively.
func isDuplicateCustomer(message string) bool {
	if len(message) < len(duplicateCustomerPrefix) {
		return false
	}
	return strings.EqualFold(message[:len(duplicateCustomerPrefix)], duplicateCustomerPrefix)
}

// ageInYears returns the age in whole years on now of someone born on
// birthDate (YYYY-MM-DD).
func ageInYears(birthDate string, now time.Time) (int, error) {
	born, err := time.ParseInLocation("2006-01-02", birthDate, now.Location())
	if err != nil {
		return 0, err
	}
	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	return years, nil
}

// AddCustomer registers payload as a new loyalty card holder. It always
// returns a Result; failures are reported through Result.Status and
// Result.Err.
func (c *Client) AddCustomer(ctx context.Context, payload Customer) Result {
	token := c.tokens.Ensure(ctx)
	if token == "" {
		err := newErr(KindTokenMissing, "customer.add", "no API token available")
		c.logger.Error("addCustomer exception", "error", err)
		return c.finish(Result{Status: StatusError, Message: err.Message, Err: err}, Response{}, token)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		perr := wrapErr(KindParseFailure, "customer.add", "could not encode customer", err)
		c.logger.Error("addCustomer exception", "error", perr)
		return c.finish(Result{Status: StatusError, Message: perr.Message, Err: perr}, Response{}, token)
	}

	resp, callErr := c.transport.Call(ctx, c.cfg.Host, customerEndpoint, http.MethodPost, body, c.cfg.APIKey, token)

	var parsed customerResponse
	var parseErr error
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		if callErr != nil {
			err = callErr
		}
		c.logger.Warn("addCustomer json exception", "statusCode", resp.StatusCode, "error", err)
		parseErr = wrapErr(KindParseFailure, "customer.add", "response is not valid JSON", err)
	}

	var res Result
	if resp.StatusCode == http.StatusOK {
		res = Result{
			Status: StatusSuccess,
			Card: &Card{
				Barcode:   string(parsed.Barcode),
				Email:     parsed.Email,
				FirstName: parsed.FirstName,
			},
		}
	} else {
		message := parsed.Error.Details.Message
		res = Result{Status: StatusError, StatusCode: resp.StatusCode, Message: message}

		if isDuplicateCustomer(message) {
			res.Status = StatusWarning
			res.Message = DuplicateCustomerMessage
		} else {
			c.logRejection(resp.StatusCode, message, payload)
		}
	}

	switch {
	case callErr != nil:
		res.Err = callErr
	case parseErr != nil:
		res.Err = parseErr
	}
	return c.finish(res, resp, token)
}

// logRejection records a non-duplicate rejection. Without a server message
// the customer's age is logged instead, since most such rejections are
// age checks.
func (c *Client) logRejection(statusCode int, message string, payload Customer) {
	if message != "" {
		c.logger.Warn("addCustomer exists exception: "+message, "statusCode", statusCode)
		return
	}

	age, err := ageInYears(payload.BirthDate(), c.cfg.Now())
	if err != nil {
		c.logger.Warn("addCustomer exists exception: birthDate(unknown)", "statusCode", statusCode, "birthDate", payload.BirthDate())
		return
	}
	c.logger.Warn(fmt.Sprintf("addCustomer exists exception: birthDate(%d)", age), "statusCode", statusCode, "age", age)
}

func (c *Client) finish(res Result, resp Response, token string) Result {
	customerResults.WithLabelValues(string(res.Status)).Inc()
	if c.cfg.Debug {
		res.Debug = &Debug{
			StatusCode:   resp.StatusCode,
			ResponseData: string(resp.Body),
			Token:        token,
		}
	}
	return res
}
