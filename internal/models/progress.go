package models

import "time"

// Progress is the per-user completion flag of a section. One row per
// (user, module, section); CompletionDate is set once on first completion.
type Progress struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	UserID         uint       `json:"userId" gorm:"not null;uniqueIndex:idx_progress_user_module_section"`
	ModuleID       uint       `json:"moduleId" gorm:"not null;uniqueIndex:idx_progress_user_module_section;index"`
	SectionID      uint       `json:"sectionId" gorm:"not null;uniqueIndex:idx_progress_user_module_section"`
	Completed      bool       `json:"completed" gorm:"not null"`
	CompletionDate *time.Time `json:"completionDate"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Progress) TableName() string {
	return "progress"
}
