package models

import "github.com/jinzhu/gorm"

type User struct {
	gorm.Model
	FirstName string
	LastName  string
	Age       int
	Posts     []Post `gorm:"foreignkey:AuthorID"`
}

type Post struct {
	gorm.Model
	Title    string `gorm:"not null"`
	Content  string `gorm:"not null"`
	AuthorID uint   `gorm:"index"`
	Author   *User  `gorm:"association_autoupdate:false;association_autocreate:false"`
	// Таблица связей post_tags принадлежит посту
	Tags []Tag `gorm:"many2many:post_tags;association_autoupdate:false;association_autocreate:false"`
}

type Tag struct {
	gorm.Model
	Name  string
	Posts []Post `gorm:"many2many:post_tags;association_autoupdate:false;association_autocreate:false"`
}
