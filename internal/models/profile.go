package models

import (
	"time"
)

// ProfilesCollection is the Mongo collection holding one Profile per identity.
const ProfilesCollection = "profiles"

// Gender is one of the fixed values offered by the registration form.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Genders lists the accepted genders in display order.
var Genders = []Gender{GenderMale, GenderFemale}

// Valid reports whether g is one of Genders.
func (g Gender) Valid() bool {
	for _, v := range Genders {
		if g == v {
			return true
		}
	}
	return false
}

// Interest is one of the fixed tags offered by the registration form.
type Interest string

const (
	InterestSports  Interest = "sports"
	InterestNews    Interest = "news"
	InterestFashion Interest = "fashion"
	InterestTravels Interest = "travels"
	InterestCooking Interest = "cooking"
)

// Interests lists the accepted interests in display order.
var Interests = []Interest{InterestSports, InterestNews, InterestFashion, InterestTravels, InterestCooking}

// Valid reports whether i is one of Interests.
func (i Interest) Valid() bool {
	for _, v := range Interests {
		if i == v {
			return true
		}
	}
	return false
}

// Profile is the document written once per registered person.
// ID equals the identity id. ProfilePicture is nil when no image was uploaded.
//
// Readers must tolerate partial documents: registration is not transactional,
// so any field may be missing.
type Profile struct {
	ID        string    `bson:"_id" json:"id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`

	FullName string `bson:"fullname" json:"full_name"`
	Email    string `bson:"email" json:"email"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender   Gender `bson:"gender,omitempty" json:"gender,omitempty"`

	Interests      []Interest `bson:"interests" json:"interests"`
	ProfilePicture *string    `bson:"profile_picture" json:"profile_picture"`
}

// Incomplete reports whether a required field is missing from the document.
func (p Profile) Incomplete() bool {
	return p.FullName == "" || p.Email == ""
}
