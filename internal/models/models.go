package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Settings is the global configuration singleton (only one row should exist)
type Settings struct {
	BaseModel
	// Auto-generated on first setup (64 hex chars)
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"`
}

// UserLevel is the organizational role of a user within the agency
type UserLevel string

const (
	LevelAdministrator              UserLevel = "administrator"
	LevelDivisionChief              UserLevel = "division_chief"
	LevelEIAAirWaterSectionChief    UserLevel = "eia_air_water_section_chief"
	LevelToxicHazardousSectionChief UserLevel = "toxic_hazardous_section_chief"
	LevelSolidWasteSectionChief     UserLevel = "solid_waste_section_chief"
	LevelEIAMonitoringUnitHead      UserLevel = "eia_monitoring_unit_head"
	LevelAirQualityUnitHead         UserLevel = "air_quality_unit_head"
	LevelWaterQualityUnitHead       UserLevel = "water_quality_unit_head"
	LevelToxicChemicalsPersonnel    UserLevel = "toxic_chemicals_monitoring_personnel"
	LevelSolidWastePersonnel        UserLevel = "solid_waste_monitoring_personnel"
)

// ValidUserLevel reports whether level is one of the known organizational roles
func ValidUserLevel(level UserLevel) bool {
	switch level {
	case LevelAdministrator, LevelDivisionChief,
		LevelEIAAirWaterSectionChief, LevelToxicHazardousSectionChief,
		LevelSolidWasteSectionChief, LevelEIAMonitoringUnitHead,
		LevelAirQualityUnitHead, LevelWaterQualityUnitHead,
		LevelToxicChemicalsPersonnel, LevelSolidWastePersonnel:
		return true
	}
	return false
}

// User account statuses
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User represents an agency staff account
type User struct {
	BaseModel
	Email        string    `json:"email" gorm:"unique;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	FirstName    string    `json:"first_name" gorm:"not null"`
	LastName     string    `json:"last_name" gorm:"not null"`
	MiddleName   string    `json:"middle_name"`
	UserLevel    UserLevel `json:"user_level" gorm:"type:varchar(48);not null"`
	Status       string    `json:"status" gorm:"type:varchar(16);not null;default:active"`
	AvatarURL    string    `json:"avatar_url"`

	// Set by admin resets; forces a password change before anything else is reachable
	UsingDefaultPassword bool `json:"using_default_password" gorm:"not null;default:false"`

	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsAdministrator reports whether the user holds the administrator role
func (u *User) IsAdministrator() bool {
	return u.UserLevel == LevelAdministrator
}

// FullName returns the user's display name
func (u *User) FullName() string {
	if u.MiddleName != "" {
		return u.FirstName + " " + u.MiddleName + " " + u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// NatureOfBusiness categorizes what an establishment does
type NatureOfBusiness struct {
	BaseModel
	Name        string    `json:"name" gorm:"unique;not null"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Establishment represents a registered establishment under agency oversight
type Establishment struct {
	BaseModel
	Name               string `json:"name" gorm:"not null"`
	AddressLine        string `json:"address_line" gorm:"not null"`
	Barangay           string `json:"barangay"`
	City               string `json:"city" gorm:"not null"`
	Province           string `json:"province"`
	Region             string `json:"region"`
	PostalCode         string `json:"postal_code"`
	Latitude           string `json:"latitude"`
	Longitude          string `json:"longitude"`
	YearEstablished    string  `json:"year_established"`
	NatureOfBusinessID *string `json:"nature_of_business_id"`
	IsArchived         bool    `json:"is_archived" gorm:"not null;default:false"`

	NatureOfBusiness *NatureOfBusiness `json:"nature_of_business,omitempty" gorm:"foreignKey:NatureOfBusinessID;references:ID;constraint:OnDelete:SET NULL"`
	UpdatedAt        time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

// ActivityLog records an administrative action for the audit trail.
// The FK columns are nullable: self-service actions have no admin and
// non-user actions have no affected user.
type ActivityLog struct {
	BaseModel
	AdminID *string `json:"admin_id"`
	UserID  *string `json:"user_id"`
	Action  string  `json:"action" gorm:"not null;index"`
	Details string  `json:"details" gorm:"type:text"` // JSON blob, shape varies per action

	Admin *User `json:"admin,omitempty" gorm:"foreignKey:AdminID;references:ID;constraint:OnDelete:SET NULL"`
	User  *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:SET NULL"`
}

// Todo is a lightweight per-user task item shown on the dashboard
type Todo struct {
	BaseModel
	Name      string    `json:"name" gorm:"not null"`
	Completed bool      `json:"completed" gorm:"not null;default:false"`
	OwnerID   string    `json:"owner_id" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// PasswordResetOTP holds a pending one-time code for a password reset.
// Codes expire server-side; the console only tracks a resend cooldown.
type PasswordResetOTP struct {
	BaseModel
	Email     string    `json:"email" gorm:"not null;index"`
	Code      string    `json:"-" gorm:"type:varchar(6);not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Attempts  int       `json:"attempts" gorm:"not null;default:0"`
	Used      bool      `json:"used" gorm:"not null;default:false"`
}

// Expired reports whether the code is past its expiry
func (o *PasswordResetOTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// NullableID converts an ID to a nullable FK value, nil for the empty string
func NullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	models := []interface{}{
		&Settings{}, &User{}, &NatureOfBusiness{}, &Establishment{},
		&ActivityLog{}, &Todo{}, &PasswordResetOTP{},
	}

	return db.AutoMigrate(models...)
}

// FindByID safely finds a record by string ID
func FindByID[T any](db *gorm.DB, id string, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}

// FindByIDWithPreload finds a record by ID with preloading
func FindByIDWithPreload[T any](db *gorm.DB, id string, model *T, preloads ...string) error {
	query := db
	for _, preload := range preloads {
		query = query.Preload(preload)
	}
	return query.Where("id = ?", id).First(model).Error
}
