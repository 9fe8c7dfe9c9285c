package handlers

import (
	"net/http"

	"github.com/AnshRaj112/profiledir-backend/internal/models"
	"github.com/AnshRaj112/profiledir-backend/internal/services"
	"github.com/AnshRaj112/profiledir-backend/pkg/httpx"
)

// FormField describes one input of a form.
type FormField struct {
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Type      string   `json:"type"`
	Required  bool     `json:"required"`
	MinLength int      `json:"min_length,omitempty"`
	Options   []string `json:"options,omitempty"`
	Multiple  bool     `json:"multiple,omitempty"`
	Accept    string   `json:"accept,omitempty"`
}

// Form describes a form the client renders.
type Form struct {
	Title  string      `json:"title"`
	Action string      `json:"action"`
	Fields []FormField `json:"fields"`
}

type landing struct {
	Title string            `json:"title"`
	Links map[string]string `json:"links"`
}

func genderOptions() []string {
	out := make([]string, 0, len(models.Genders))
	for _, g := range models.Genders {
		out = append(out, string(g))
	}
	return out
}

func interestOptions() []string {
	out := make([]string, 0, len(models.Interests))
	for _, i := range models.Interests {
		out = append(out, string(i))
	}
	return out
}

// RegistrationPage is the sign-up form served at GET /register.
func RegistrationPage() Form {
	return Form{
		Title:  "Create Account",
		Action: "/register",
		Fields: []FormField{
			{Name: "full_name", Label: "Full Name", Type: "text", Required: true},
			{Name: "email", Label: "Email", Type: "email", Required: true},
			{Name: "password", Label: "Password", Type: "password", Required: true, MinLength: services.MinPasswordLength},
			{Name: "confirm_password", Label: "Confirm Password", Type: "password", Required: true},
			{Name: "phone", Label: "Phone Number", Type: "tel", Required: true},
			{Name: "gender", Label: "Gender", Type: "radio", Required: true, Options: genderOptions()},
			{Name: "interests", Label: "Interests", Type: "checkbox", Options: interestOptions(), Multiple: true},
			{Name: "file", Label: "Profile Picture", Type: "file", Accept: "image/*"},
		},
	}
}

// LoginPage is the sign-in form served at GET /login.
func LoginPage() Form {
	return Form{
		Title:  "Login",
		Action: "/login",
		Fields: []FormField{
			{Name: "email", Label: "Email", Type: "email", Required: true},
			{Name: "password", Label: "Password", Type: "password", Required: true},
		},
	}
}

// ServeHome handles GET /.
func ServeHome(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, httpx.Envelope{
		Success: true,
		Message: "Welcome",
		Data:    landing{Title: "Welcome", Links: map[string]string{"register": "/register", "login": "/login"}},
	}, nil)
}

// ServeRegisterForm handles GET /register.
func ServeRegisterForm(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, httpx.Envelope{Success: true, Data: RegistrationPage()}, nil)
}

// ServeLoginForm handles GET /login.
func ServeLoginForm(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, httpx.Envelope{Success: true, Data: LoginPage()}, nil)
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}
