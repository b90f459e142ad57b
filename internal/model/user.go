// Package model defines the data structures used throughout the application.
package model

import "fmt"

// User is one profile record from the sample-data API.
//
// The JSON tags follow the remote API's snake_case field names exactly, so a
// response body decodes straight into this struct. The same struct is written
// back out by the local sample API, which keeps both sides of the contract in
// one place.
//
// Users are treated as immutable values once received: the list controller
// copies them around but never edits a field.
type User struct {
	ID             int64   `json:"id"              db:"id"`
	Gender         string  `json:"gender"          db:"gender"`
	DateOfBirth    string  `json:"date_of_birth"   db:"date_of_birth"` // ISO-8601 timestamp, kept as received
	Job            string  `json:"job"             db:"job"`
	City           string  `json:"city"            db:"city"`
	Zipcode        string  `json:"zipcode"         db:"zipcode"`
	Latitude       float64 `json:"latitude"        db:"latitude"` // decimal degrees
	ProfilePicture string  `json:"profile_picture" db:"profile_picture"`
	FirstName      string  `json:"first_name"      db:"first_name"`
	LastName       string  `json:"last_name"       db:"last_name"`
	Email          string  `json:"email"           db:"email"`
	Phone          string  `json:"phone"           db:"phone"`
	Street         string  `json:"street"          db:"street"`
	State          string  `json:"state"           db:"state"`
	Country        string  `json:"country"         db:"country"`
	Longitude      float64 `json:"longitude"       db:"longitude"` // decimal degrees
}

// FullName joins first and last name for display.
func (u User) FullName() string {
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}

// UserPage is one page of the sample-data API response.
//
// Only Users is required by the list controller. The remaining fields are
// reported by the real API and are filled in by the local sample API; a
// source that omits them decodes to zero values.
type UserPage struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	TotalUsers int    `json:"total_users"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
	Users      []User `json:"users"`
}
