package models

import "time"

// Address 企业地址
type Address struct {
	Street  string `gorm:"type:varchar(255)" json:"street"`
	City    string `gorm:"type:varchar(100)" json:"city"`
	State   string `gorm:"type:varchar(100)" json:"state"`
	Country string `gorm:"type:varchar(100);default:'Nigeria'" json:"country"`
	ZipCode string `gorm:"type:varchar(20)" json:"zipCode"`
}

// Business 企业 KYC 信息，每个用户一条
type Business struct {
	ID                        uint      `gorm:"primarykey" json:"id"`
	UserID                    uint      `gorm:"uniqueIndex;not null" json:"userId"`
	BusinessName              string    `gorm:"type:varchar(200);not null" json:"businessName"`
	BusinessEmail             string    `gorm:"type:varchar(255);not null" json:"businessEmail"`
	BusinessAddress           Address   `gorm:"embedded;embeddedPrefix:address_" json:"businessAddress"`
	CACRegistrationNumber     string    `gorm:"column:cac_registration_number;type:varchar(64);uniqueIndex;not null" json:"cacRegistrationNumber"`
	ProofOfAddress            string    `gorm:"type:varchar(500);not null;default:'pending-upload'" json:"proofOfAddress"`
	BusinessLogo              string    `gorm:"type:varchar(500)" json:"businessLogo"`
	BusinessHotline           string    `gorm:"type:varchar(20);not null" json:"businessHotline"`
	AlternativePhoneNumber    string    `gorm:"type:varchar(20)" json:"alternativePhoneNumber"`
	WantSharperlyDriverOrders bool      `gorm:"not null;default:false" json:"wantSharperlyDriverOrders"`
	IsVerified                bool      `gorm:"not null;default:false" json:"isVerified"`
	VerificationStatus        string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"verificationStatus"`
	VerificationNotes         string    `gorm:"type:text" json:"verificationNotes"`
	TotalOrders               int64     `gorm:"not null;default:0" json:"totalOrders"`
	CompletedOrders           int64     `gorm:"not null;default:0" json:"completedOrders"`
	Rating                    float64   `gorm:"not null;default:0" json:"rating"`
	CreatedAt                 time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Business) TableName() string {
	return "businesses"
}
