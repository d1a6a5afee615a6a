package model

import (
	"time"
)

// gorm自带的gorm.Model里ID是uint类型，还带DeletedAt，我想统一成uint64，所以自己搞了个base结构体
// 注意这里故意没有DeletedAt：评论的删除是真删除（硬删除），带上DeletedAt之后gorm会偷偷变成软删除
type BaseModel struct {
	ID        uint64 `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
