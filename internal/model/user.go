package model

type User struct {
	BaseModel        // 包括 ID, CreatedAt, UpdatedAt
	Username  string `gorm:"unique;not null"`
	Password  string `gorm:"not null"`
	Nickname  string // 昵称，展示用，可以和用户名不一样
	Image     string // 头像地址
}
