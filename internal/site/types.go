// Package site is the HTTP client for the event-registration site: event
// detail lookups and multipart registration submissions guarded by a
// CSRF token.
package site

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Coordinator is a student contact listed on an event.
type Coordinator struct {
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	Phone      string `json:"phone"`
}

// EventDetails is the payload of GET /get-event-details/{name}/.
// Every field is optional; the server omits or blanks what it lacks.
type EventDetails struct {
	Title                         string        `json:"title"`
	Description                   string        `json:"description"`
	RoundsInfo                    string        `json:"rounds_info"`
	Rules                         string        `json:"rules"`
	TeamRequirements              string        `json:"team_requirements"`
	Prizes                        string        `json:"prizes"`
	FacultyCoordinatorName        string        `json:"faculty_coordinator_name"`
	FacultyCoordinatorDesignation string        `json:"faculty_coordinator_designation"`
	FacultyCoordinatorPhone       string        `json:"faculty_coordinator_phone"`
	StudentCoordinators           []Coordinator `json:"student_coordinators"`
}

// Teammate is one teammate slot of the registration form.
type Teammate struct {
	Name  string
	RegNo string
}

// Submission is the registration form state sent to the server.
type Submission struct {
	EventName       string
	TeamName        string
	LeadName        string
	College         string
	Phone           string
	Email           string
	Teammates       []Teammate
	IdeaDescription string
	// IdeaFile is a local path; empty when the event takes no idea.
	IdeaFile string
}

// FormField is one key/value pair of the multipart body.
type FormField struct {
	Key   string
	Value string
}

// Fields returns the text parts of the multipart body in submission order.
// Empty teammate slots are still sent, as a browser form would.
func (s Submission) Fields() []FormField {
	fields := []FormField{
		{"event_name", s.EventName},
		{"event", s.EventName},
		{"team_name", s.TeamName},
		{"team_lead_name", s.LeadName},
		{"college_name", s.College},
		{"phone_number", s.Phone},
		{"email", s.Email},
	}
	for i, tm := range s.Teammates {
		n := i + 1
		fields = append(fields,
			FormField{fmt.Sprintf("teammate%d_name", n), tm.Name},
			FormField{fmt.Sprintf("teammate%d_reg_no", n), tm.RegNo},
		)
	}
	if s.IdeaDescription != "" {
		fields = append(fields, FormField{"idea_description", s.IdeaDescription})
	}
	return fields
}

// IdeaFileExtensions are the upload types the server accepts.
var IdeaFileExtensions = []string{".pdf", ".ppt", ".pptx"}

// MaxIdeaFileSize mirrors the server's upload limit.
const MaxIdeaFileSize = 50 * 1024 * 1024

// AcceptedIdeaFile reports whether path has an accepted extension.
func AcceptedIdeaFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, ok := range IdeaFileExtensions {
		if ext == ok {
			return true
		}
	}
	return false
}

// RegistrationResult is the JSON reply of POST /register-participant/.
type RegistrationResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
	TeamCode    string `json:"team_code,omitempty"`
}
