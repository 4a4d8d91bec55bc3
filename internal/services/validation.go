package services

import (
	"fmt"
	"strings"
)

// indianStates holds the recognised state and union territory names for
// shipping address validation.
var indianStates = stateSet(
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh",
	"Goa", "Gujarat", "Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka",
	"Kerala", "Madhya Pradesh", "Maharashtra", "Manipur", "Meghalaya",
	"Mizoram", "Nagaland", "Odisha", "Punjab", "Rajasthan", "Sikkim",
	"Tamil Nadu", "Telangana", "Tripura", "Uttar Pradesh", "Uttarakhand",
	"West Bengal",
	"Andaman and Nicobar Islands", "Chandigarh",
	"Dadra and Nagar Haveli and Daman and Diu", "Delhi", "Jammu and Kashmir",
	"Ladakh", "Lakshadweep", "Puducherry",
)

func stateSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func validateEmail(sentinel error, email string) error {
	trimmed := strings.TrimSpace(email)
	at := strings.Index(trimmed, "@")
	if at <= 0 || at == len(trimmed)-1 {
		return fmt.Errorf("%w: email is invalid", sentinel)
	}
	if !strings.Contains(trimmed[at+1:], ".") {
		return fmt.Errorf("%w: email is invalid", sentinel)
	}
	if strings.ContainsAny(trimmed, " \t") {
		return fmt.Errorf("%w: email is invalid", sentinel)
	}
	return nil
}

func validateAddress(sentinel error, field string, addr Address) error {
	if strings.TrimSpace(addr.Name) == "" {
		return fmt.Errorf("%w: %s.name is required", sentinel, field)
	}
	if strings.TrimSpace(addr.Street) == "" {
		return fmt.Errorf("%w: %s.street is required", sentinel, field)
	}
	if strings.TrimSpace(addr.City) == "" {
		return fmt.Errorf("%w: %s.city is required", sentinel, field)
	}
	if _, ok := indianStates[strings.TrimSpace(addr.State)]; !ok {
		return fmt.Errorf("%w: %s.state is not a recognised state", sentinel, field)
	}
	if err := validatePostalCode(addr.PostalCode); err != nil {
		return fmt.Errorf("%w: %s.postal_code %s", sentinel, field, err)
	}
	if err := validatePhone(addr.Phone); err != nil {
		return fmt.Errorf("%w: %s.phone %s", sentinel, field, err)
	}
	return nil
}

func validatePostalCode(code string) error {
	trimmed := strings.TrimSpace(code)
	if len(trimmed) != 6 {
		return fmt.Errorf("must be 6 digits")
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return fmt.Errorf("must be 6 digits")
		}
	}
	if trimmed[0] == '0' {
		return fmt.Errorf("must not start with 0")
	}
	return nil
}

func validatePhone(phone string) error {
	trimmed := strings.TrimSpace(phone)
	if len(trimmed) != 10 {
		return fmt.Errorf("must be 10 digits")
	}
	for _, r := range trimmed {
		if r < '0' || r > '9' {
			return fmt.Errorf("must be 10 digits")
		}
	}
	if trimmed[0] < '6' {
		return fmt.Errorf("must start with 6, 7, 8 or 9")
	}
	return nil
}
