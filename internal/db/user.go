package db

import "gorm.io/gorm"

// User 定义了账号模型，Password 存储 bcrypt 哈希
type User struct {
	gorm.Model
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}
