package model

type Comment struct {
	BaseModel
	NoteID uint64 `gorm:"not null;index"` // index索引，极大地加速基于该列的查询、过滤和排序操作
	// TEXT是MySQL中的一种文本类型，专门用于存储非常长的字符串，最大长度可达65,535个字符
	Content string `gorm:"type:text;not null"`
	// 指针*uint64的零值是nil，这样就可以区分是一级评论还是二级评论
	ParentID *uint64 `gorm:"index"`

	// 作者二选一：要么是登录用户(AccountID非空)，要么是游客(GuestName非空)，不会两者都有或都没有
	AccountID *uint64 `gorm:"index"`
	GuestName string
	GuestIP   string // 游客来源地址，仅作排查用
	GuestUA   string // 游客UA的序列化结果，仅作排查用

	Account User `gorm:"foreignKey:AccountID"`
}

func (Comment) TableName() string {
	return "comments"
}
