package model

// Note结构，笔记都要有什么？作者，正文，还有一个冗余的评论总数
type Note struct {
	BaseModel
	AuthorID uint64 `gorm:"not null"` // 作者ID，用于关联用户
	Content  string `gorm:"type:text;not null"`
	// 冗余字段，评论创建/删除时在同一个事务里维护，列表页就不用每次COUNT整张评论表
	CommentCount uint64 `gorm:"default:0"`

	// 外键AuthorID和User表的ID
	Author User `gorm:"foreignKey:AuthorID;references:ID"`
}

func (Note) TableName() string {
	return "notes"
}
