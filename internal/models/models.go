package models

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	// AdminUsername is the seeded account that is always fully authorized.
	AdminUsername = "Admin"
)

// Permission sections gating the functional areas of the application.
const (
	SectionUsers       = "users"
	SectionCustomers   = "customers"
	SectionReceiving   = "receiving"
	SectionClosing     = "closing"
	SectionIrradiation = "irradiation"
)

// DefaultSections lists every section; admins are granted all of them.
var DefaultSections = []string{
	SectionUsers,
	SectionCustomers,
	SectionReceiving,
	SectionClosing,
	SectionIrradiation,
}

type User struct {
	Username     string   `json:"username"`
	PasswordHash string   `json:"password_hash"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	Active       bool     `json:"active"`
}

func (u *User) HasSection(section string) bool {
	for _, s := range u.Permissions {
		if s == section {
			return true
		}
	}
	return false
}

type Customer struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Note         string `json:"note"`
}

func (c *Customer) GetID() int   { return c.ID }
func (c *Customer) SetID(id int) { c.ID = id }

type Sample struct {
	ID             int    `json:"id"`
	ReceivedDate   string `json:"received_date"`
	CustomerID     int    `json:"customer_id"`
	SampleName     string `json:"sample_name"`
	SampleCode     string `json:"sample_code"`
	SampleType     string `json:"sample_type"`
	AnalysisTarget string `json:"analysis_target"`
	Note           string `json:"note"`
}

func (s *Sample) GetID() int   { return s.ID }
func (s *Sample) SetID(id int) { s.ID = id }

type ClosedSample struct {
	ID              int     `json:"id"`
	ClosingDate     string  `json:"closing_date"`
	CustomerName    string  `json:"customer_name"`
	SampleName      string  `json:"sample_name"`
	Encoding        string  `json:"encoding"`
	BoxSymbol       string  `json:"box_symbol"`
	Weight          float64 `json:"weight"`
	Moisture        float64 `json:"moisture"`
	CorrectedWeight float64 `json:"corrected_weight"`
	Note            string  `json:"note"`
	CreatedAt       string  `json:"created_at"`
}

func (s *ClosedSample) GetID() int   { return s.ID }
func (s *ClosedSample) SetID(id int) { s.ID = id }

// Box is one physical container recorded during a closing.
type Box struct {
	BoxSymbol string  `json:"box_symbol"`
	Weight    float64 `json:"weight"`
	Moisture  float64 `json:"moisture"`
}

// Closing holds the fields shared by every box of one closing event.
type Closing struct {
	ClosingDate  string
	CustomerName string
	SampleName   string
	Encoding     string
	Note         string
}

type Session struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CSRFToken struct {
	Token     string    `json:"token" db:"token"`
	Username  string    `json:"username" db:"username"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
