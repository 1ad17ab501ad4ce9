// models.go this is our database models
package main

import (
	"time"

	"gorm.io/datatypes"
)

// The structs below own the physical schema (AutoMigrate) and the insert path.
// Reads go through the table registry in schema.go and come back as rows.

type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string { return "messages" }

type Education struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Institution string `gorm:"size:255;not null" json:"institution"`
	Degree      string `gorm:"size:255;not null" json:"degree"`
	StartYear   *int   `json:"start_year"`
	EndYear     *int   `json:"end_year"`
	Focus       string `gorm:"size:255" json:"focus"`
	Location    string `gorm:"size:255" json:"location"`
	OrderIndex  int    `gorm:"not null;default:0" json:"order_index"`
}

func (Education) TableName() string { return "education" }

type Project struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	Summary    string         `gorm:"type:text" json:"summary"`
	Tags       datatypes.JSON `json:"tags"` // []string
	Image      string         `gorm:"size:1024" json:"image"`
	LiveURL    string         `gorm:"column:live_url;size:1024" json:"live_url"`
	CodeURL    string         `gorm:"column:code_url;size:1024" json:"code_url"`
	OrderIndex int            `gorm:"not null;default:0" json:"order_index"`
}

func (Project) TableName() string { return "projects" }

// SkillItem is one entry of SkillGroup.Items.
type SkillItem struct {
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

type SkillGroup struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Category   string         `gorm:"size:255;not null" json:"category"`
	Items      datatypes.JSON `json:"items"` // []SkillItem
	OrderIndex int            `gorm:"not null;default:0" json:"order_index"`
}

func (SkillGroup) TableName() string { return "skills" }

type Certification struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"size:255;not null" json:"name"`
	Provider   string `gorm:"size:255" json:"provider"`
	Year       *int   `json:"year"`
	Details    string `gorm:"type:text" json:"details"`
	OrderIndex int    `gorm:"not null;default:0" json:"order_index"`
}

func (Certification) TableName() string { return "certifications" }

type SocialLink struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Label      string `gorm:"size:255;not null" json:"label"`
	URL        string `gorm:"column:url;size:1024;not null" json:"url"`
	Icon       string `gorm:"size:64" json:"icon"`
	OrderIndex int    `gorm:"not null;default:0" json:"order_index"`
}

func (SocialLink) TableName() string { return "social_links" }

// Profile holds the resume blob. Nothing stops a second row; readers take the lowest id.
type Profile struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Content string `gorm:"type:text" json:"content"`
}

func (Profile) TableName() string { return "profile" }

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:255;not null;uniqueIndex" json:"username"`
	PasswordHash string `gorm:"size:255;not null" json:"password_hash"`
}

func (User) TableName() string { return "users" }

func (m *Message) rowID() uint       { return m.ID }
func (m *Education) rowID() uint     { return m.ID }
func (m *Project) rowID() uint       { return m.ID }
func (m *SkillGroup) rowID() uint    { return m.ID }
func (m *Certification) rowID() uint { return m.ID }
func (m *SocialLink) rowID() uint    { return m.ID }
func (m *Profile) rowID() uint       { return m.ID }
func (m *User) rowID() uint          { return m.ID }
