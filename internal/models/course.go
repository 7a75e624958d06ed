package models

import (
	"time"

	"gorm.io/datatypes"
)

// Course levels gate content access. A subscription at a level grants every lower level too.
const (
	MinCourseLevel = 1
	MaxCourseLevel = 3
)

type Course struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Level       int     `json:"level" gorm:"not null;index"`
	Title       string  `json:"title" gorm:"not null;size:200"`
	Description string  `json:"description" gorm:"type:text;not null"`
	Price       float64 `json:"price" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Modules []Module `json:"modules,omitempty" gorm:"foreignKey:CourseID"`
}

func (Course) TableName() string {
	return "courses"
}

type Module struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	CourseID    uint   `json:"courseId" gorm:"not null;uniqueIndex:idx_modules_course_order"`
	Title       string `json:"title" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"type:text;not null"`
	Order       int    `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_modules_course_order"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Sections []Section `json:"sections,omitempty" gorm:"foreignKey:ModuleID"`
}

func (Module) TableName() string {
	return "modules"
}

type ResourceType string

const (
	ResourcePDF      ResourceType = "pdf"
	ResourceVideo    ResourceType = "video"
	ResourceLink     ResourceType = "link"
	ResourceDocument ResourceType = "document"
)

type Resource struct {
	Title string       `json:"title" validate:"required,max=200"`
	URL   string       `json:"url" validate:"required,url"`
	Type  ResourceType `json:"type" validate:"resource_type"`
}

type Section struct {
	ID        uint                          `json:"id" gorm:"primaryKey"`
	ModuleID  uint                          `json:"moduleId" gorm:"not null;uniqueIndex:idx_sections_module_order"`
	Title     string                        `json:"title" gorm:"not null;size:200"`
	Content   string                        `json:"content" gorm:"type:text;not null"`
	VideoURL  *string                       `json:"videoUrl" gorm:"size:500"`
	Resources datatypes.JSONSlice[Resource] `json:"resources"`
	Order     int                           `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_sections_module_order"`
	QuizID    *uint                         `json:"quizId" gorm:"index"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Section) TableName() string {
	return "sections"
}
