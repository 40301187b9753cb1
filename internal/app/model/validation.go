package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/asaskevich/govalidator"
)

const (
	maxAboutMe       = 500
	maxCity          = 180
	maxTwitterHandle = 20
	maxProfilePhoto  = 255
	maxName          = 50
	maxUsername      = 255
	minPassword      = 8
)

// FieldErrors maps a JSON field name to a human readable problem.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Validate checks every provided field against its domain.
func (pp *ProfilePatch) Validate() error {
	fe := FieldErrors{}

	if pp.PhoneNumber != nil && !govalidator.IsE164(*pp.PhoneNumber) {
		fe["phone_number"] = "enter a valid phone number in international format, e.g. +12125552368"
	}
	if pp.AboutMe != nil && !govalidator.RuneLength(*pp.AboutMe, "0", fmt.Sprint(maxAboutMe)) {
		fe["about_me"] = fmt.Sprintf("ensure this field has no more than %d characters", maxAboutMe)
	}
	if pp.Gender != nil && !pp.Gender.Valid() {
		fe["gender"] = fmt.Sprintf("%q is not a valid choice", string(*pp.Gender))
	}
	if pp.Country != nil && !govalidator.IsISO3166Alpha2(*pp.Country) {
		fe["country"] = fmt.Sprintf("%q is not a valid country code", *pp.Country)
	}
	if pp.City != nil {
		switch {
		case strings.TrimSpace(*pp.City) == "":
			fe["city"] = "this field may not be blank"
		case !govalidator.RuneLength(*pp.City, "1", fmt.Sprint(maxCity)):
			fe["city"] = fmt.Sprintf("ensure this field has no more than %d characters", maxCity)
		}
	}
	if pp.ProfilePhoto != nil {
		switch {
		case strings.TrimSpace(*pp.ProfilePhoto) == "":
			fe["profile_photo"] = "this field may not be blank"
		case !govalidator.StringLength(*pp.ProfilePhoto, "1", fmt.Sprint(maxProfilePhoto)):
			fe["profile_photo"] = fmt.Sprintf("ensure this field has no more than %d characters", maxProfilePhoto)
		}
	}
	if pp.TwitterHandle != nil && *pp.TwitterHandle != "" {
		switch {
		case !govalidator.StringLength(*pp.TwitterHandle, "1", fmt.Sprint(maxTwitterHandle)):
			fe["twitter_handle"] = fmt.Sprintf("ensure this field has no more than %d characters", maxTwitterHandle)
		case !govalidator.Matches(*pp.TwitterHandle, `^@?[A-Za-z0-9_]+$`):
			fe["twitter_handle"] = "enter a valid twitter handle"
		}
	}

	return fe.orNil()
}

// Validate checks a user that is about to be registered.
func (u *User) Validate() error {
	fe := FieldErrors{}

	switch {
	case strings.TrimSpace(u.Username) == "":
		fe["username"] = "users must have a username"
	case !govalidator.StringLength(u.Username, "1", fmt.Sprint(maxUsername)):
		fe["username"] = fmt.Sprintf("ensure this field has no more than %d characters", maxUsername)
	case !govalidator.Matches(u.Username, `^[\w.@+-]+$`):
		fe["username"] = "enter a valid username; letters, digits and @/./+/-/_ only"
	}

	if strings.TrimSpace(u.FirstName) == "" {
		fe["first_name"] = "users must have a first name"
	} else if !govalidator.RuneLength(u.FirstName, "1", fmt.Sprint(maxName)) {
		fe["first_name"] = fmt.Sprintf("ensure this field has no more than %d characters", maxName)
	}

	if strings.TrimSpace(u.LastName) == "" {
		fe["last_name"] = "users must have a last name"
	} else if !govalidator.RuneLength(u.LastName, "1", fmt.Sprint(maxName)) {
		fe["last_name"] = fmt.Sprintf("ensure this field has no more than %d characters", maxName)
	}

	switch {
	case strings.TrimSpace(u.Email) == "":
		fe["email"] = "users must have an email address"
	case !govalidator.IsEmail(u.Email):
		fe["email"] = fmt.Sprintf("%s is not a valid email address", u.Email)
	}

	if u.PasswordHash == "" && len(u.Password) < minPassword {
		fe["password"] = fmt.Sprintf("ensure this field has at least %d characters", minPassword)
	}

	return fe.orNil()
}
