package models

import "time"

type Blog struct {
	ID          string     `gorm:"column:id;primaryKey"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex"`
	Title       string     `gorm:"column:title;not null"`
	Excerpt     *string    `gorm:"column:excerpt"`
	Body        string     `gorm:"column:body;not null"`
	CoverImage  *string    `gorm:"column:cover_image"`
	Author      *string    `gorm:"column:author"`
	Published   bool       `gorm:"column:published;not null;default:false"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

type FAQ struct {
	ID       string  `gorm:"column:id;primaryKey"`
	Question string  `gorm:"column:question;not null"`
	Answer   string  `gorm:"column:answer;not null"`
	Category *string `gorm:"column:category"`
	Position int     `gorm:"column:position;not null;default:0"`
}

func (FAQ) TableName() string { return "faqs" }
