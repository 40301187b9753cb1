package apiserver

import (
	"github.com/authorsapi/profiles/internal/app/model"
	"github.com/google/uuid"
)

type profileView struct {
	ID            uuid.UUID    `json:"id"`
	Username      string       `json:"username"`
	FirstName     string       `json:"first_name"`
	LastName      string       `json:"last_name"`
	FullName      string       `json:"full_name"`
	AboutMe       string       `json:"about_me"`
	Gender        model.Gender `json:"gender"`
	Country       string       `json:"country"`
	City          string       `json:"city"`
	ProfilePhoto  string       `json:"profile_photo"`
	TwitterHandle string       `json:"twitter_handle"`
	Following     bool         `json:"following"`
}

// ownerProfileView is what a user sees of their own profile.
type ownerProfileView struct {
	profileView

	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type followCounts struct {
	NumOfFollowers int `json:"num_of_followers"`
	NumOfFollowing int `json:"num_of_following"`
}

type profileDetailView struct {
	profileView
	followCounts
}

type ownerProfileDetailView struct {
	ownerProfileView
	followCounts
}

type followEntryView struct {
	Username      string `json:"username"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	ProfilePhoto  string `json:"profile_photo"`
	AboutMe       string `json:"about_me"`
	TwitterHandle string `json:"twitter_handle"`
	Following     bool   `json:"following"`
}

type profilePageView struct {
	Count   int           `json:"count"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
	Results []interface{} `json:"results"`
}

func newProfileView(p *model.Profile, following bool) profileView {
	return profileView{
		ID:            p.ID,
		Username:      p.Username,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		FullName:      p.FullName(),
		AboutMe:       p.AboutMe,
		Gender:        p.Gender,
		Country:       p.Country,
		City:          p.City,
		ProfilePhoto:  p.ProfilePhoto,
		TwitterHandle: p.TwitterHandle,
		Following:     following,
	}
}

func isOwner(actor, p *model.Profile) bool {
	return actor != nil && actor.ID == p.ID
}

// viewFor picks the owner or public rendering of p for actor.
func viewFor(actor, p *model.Profile, following bool) interface{} {
	pv := newProfileView(p, following)
	if !isOwner(actor, p) {
		return pv
	}

	return ownerProfileView{
		profileView: pv,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
	}
}

func detailViewFor(actor, p *model.Profile, following bool, counts followCounts) interface{} {
	pv := newProfileView(p, following)
	if !isOwner(actor, p) {
		return profileDetailView{profileView: pv, followCounts: counts}
	}

	return ownerProfileDetailView{
		ownerProfileView: ownerProfileView{
			profileView: pv,
			Email:       p.Email,
			PhoneNumber: p.PhoneNumber,
		},
		followCounts: counts,
	}
}

func followEntries(profiles []*model.Profile, followed map[uuid.UUID]bool) []followEntryView {
	entries := make([]followEntryView, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, followEntryView{
			Username:      p.Username,
			FirstName:     p.FirstName,
			LastName:      p.LastName,
			ProfilePhoto:  p.ProfilePhoto,
			AboutMe:       p.AboutMe,
			TwitterHandle: p.TwitterHandle,
			Following:     followed[p.ID],
		})
	}

	return entries
}
