package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/manifoldco/promptui"

	"loyaltygo/loyalty"
)

type customerField struct {
	key      string
	flag     string
	label    string
	validate promptui.ValidateFunc
}

var customerFields = []customerField{
	{key: "firstName", flag: "first-name", label: "First name", validate: validateRequired},
	{key: "lastName", flag: "last-name", label: "Last name", validate: validateRequired},
	{key: "email", flag: "email", label: "E-mail address", validate: validateEmail},
	{key: "birthDate", flag: "birth-date", label: "Birth date (YYYY-MM-DD)", validate: validateBirthDate},
	{key: "gender", flag: "gender", label: "Gender (M, F or X)"},
	{key: "zipCode", flag: "zip-code", label: "Postal code"},
	{key: "phone", flag: "phone", label: "Phone number"},
}

var genders = []string{"M", "F", "X"}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "@"); i < 1 || i == len(s)-1 {
		return errors.New("not an e-mail address")
	}
	return nil
}

func validateBirthDate(s string) error {
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

// promptCustomer asks for every customer field, using values already in
// payload as defaults, and asks for confirmation before returning.
func promptCustomer(payload loyalty.Customer) error {

	for _, f := range customerFields {

		def, _ := payload[f.key].(string)

		if f.key == "gender" {
			v, err := selectGender(def)
			if err != nil {
				return err
			}
			payload[f.key] = v
			continue
		}

		v, err := promptText(f.label, def, f.validate)
		if err != nil {
			return err
		}
		if v == "" {
			delete(payload, f.key)
			continue
		}
		payload[f.key] = v
	}

	return confirmCustomer(payload)
}

func selectGender(def string) (string, error) {

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ . | green }}",
		Inactive: "  {{ . }}",
		Selected: "{{ . | yellow }}",
	}

	cursor := 0
	for i, g := range genders {
		if strings.EqualFold(g, def) {
			cursor = i
		}
	}

	sel := promptui.Select{
		Label:     "Gender",
		Items:     genders,
		Templates: templates,
		CursorPos: cursor,
	}
	_, v, err := sel.Run()
	return v, err
}

func confirmCustomer(payload loyalty.Customer) error {

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var summary strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&summary, "%s: %v\n", k, payload[k])
	}
	fmt.Print(summary.String())

	prompt := promptui.Prompt{
		Label:     "Register this customer",
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return errors.New("cancelled")
		}
		return err
	}
	return nil
}
