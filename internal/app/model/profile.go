package model

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

const (
	DefaultPhoneNumber  = "+790000000000"
	DefaultAboutMe      = "Something about me"
	DefaultCountry      = "BR"
	DefaultCity         = "Nairobi"
	DefaultProfilePhoto = "/profile_default.png"
)

// Profile joins the profile row with the owning user's public identity.
type Profile struct {
	PKID          int64
	ID            uuid.UUID
	UserID        uuid.UUID
	Username      string
	FirstName     string
	LastName      string
	Email         string
	PhoneNumber   string
	AboutMe       string
	Gender        Gender
	Country       string
	City          string
	ProfilePhoto  string
	TwitterHandle string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewProfile(userID uuid.UUID) *Profile {
	return &Profile{
		ID:           uuid.New(),
		UserID:       userID,
		PhoneNumber:  DefaultPhoneNumber,
		AboutMe:      DefaultAboutMe,
		Gender:       GenderOther,
		Country:      DefaultCountry,
		City:         DefaultCity,
		ProfilePhoto: DefaultProfilePhoto,
	}
}

func (p *Profile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ProfilePatch carries a partial update. Nil fields are left unchanged.
type ProfilePatch struct {
	PhoneNumber   *string `json:"phone_number"`
	AboutMe       *string `json:"about_me"`
	Gender        *Gender `json:"gender"`
	Country       *string `json:"country"`
	City          *string `json:"city"`
	ProfilePhoto  *string `json:"profile_photo"`
	TwitterHandle *string `json:"twitter_handle"`
}

func (pp *ProfilePatch) Empty() bool {
	return pp.PhoneNumber == nil && pp.AboutMe == nil && pp.Gender == nil &&
		pp.Country == nil && pp.City == nil && pp.ProfilePhoto == nil && pp.TwitterHandle == nil
}

// Apply copies the provided fields onto p. Call Validate first.
func (pp *ProfilePatch) Apply(p *Profile) {
	if pp.PhoneNumber != nil {
		p.PhoneNumber = *pp.PhoneNumber
	}
	if pp.AboutMe != nil {
		p.AboutMe = *pp.AboutMe
	}
	if pp.Gender != nil {
		p.Gender = *pp.Gender
	}
	if pp.Country != nil {
		p.Country = *pp.Country
	}
	if pp.City != nil {
		p.City = *pp.City
	}
	if pp.ProfilePhoto != nil {
		p.ProfilePhoto = *pp.ProfilePhoto
	}
	if pp.TwitterHandle != nil {
		p.TwitterHandle = *pp.TwitterHandle
	}
}
