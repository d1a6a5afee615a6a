package repository

import (
	"Blinko_Note/internal/model"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(comment *model.Comment) error
	FindByID(commentID uint64) (*model.Comment, error)
	// 所有权检查专用：只有"id对得上且account_id对得上"才算找到
	FindOwned(commentID, accountID uint64) (*model.Comment, error)

	// 一级评论的总数，分页的total只数一级评论
	CountTopLevel(noteID uint64) (int64, error)
	// 分页获取笔记的一级评论，order只会是asc或desc（由service层保证）
	FindTopLevelByNoteID(noteID uint64, offset, limit int, order string) ([]model.Comment, error)
	// 根据父评论ID列表，获取二级评论
	FindRepliesByParentIDs(parentIDs []uint64) ([]model.Comment, error)

	UpdateContent(commentID uint64, content string) error
	// 一条SQL删掉评论本身和它的所有直接回复，返回删除的总行数
	DeleteWithReplies(commentID uint64) (int64, error)

	WithTx(tx *gorm.DB) CommentRepository
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// WithTx 返回一个新的、使用事务的 commentRepository 实例
func (r *commentRepository) WithTx(tx *gorm.DB) CommentRepository {
	return &commentRepository{
		db: tx,
	}
}

// Create 方法对事务和非事务场景通用
func (r *commentRepository) Create(comment *model.Comment) error {
	return r.db.Create(comment).Error
}

// 利用commentID找comment，并顺便将结构体中的Account给Preload进去（游客评论的Account就是空结构体）
func (r *commentRepository) FindByID(commentID uint64) (*model.Comment, error) {
	var result model.Comment
	err := r.db.Preload("Account").First(&result, commentID).Error
	if err != nil {
		return nil, err // 如果有错（包括没找到），直接返回
	}
	return &result, err
}

// 单次查询同时完成"存在吗"和"是你的吗"两个判断
// 故意不区分这两种失败：都返回gorm.ErrRecordNotFound，免得别人用报错探测出评论的存在性
func (r *commentRepository) FindOwned(commentID, accountID uint64) (*model.Comment, error) {
	var result model.Comment
	err := r.db.Where("id = ? AND account_id = ?", commentID, accountID).First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// 数一级评论：parent_id为NULL的才算，二级评论不计入分页total
func (r *commentRepository) CountTopLevel(noteID uint64) (int64, error) {
	var total int64
	err := r.db.Model(&model.Comment{}).
		Where("note_id = ? AND parent_id IS NULL", noteID).
		Count(&total).Error
	return total, err
}

// 分页获取一个笔记下的一级评论
func (r *commentRepository) FindTopLevelByNoteID(noteID uint64, offset, limit int, order string) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.
		Preload("Account"). // 预加载评论的作者信息，能一次性地把作者的关联信息查询出来
		Where("note_id = ? AND parent_id IS NULL", noteID).
		Offset(offset).
		Limit(limit).
		Order("created_at " + order).
		Find(&comments).Error
	return comments, err
}

// 根据一批父评论ID，获取它们所有的二级评论
// 这里固定created_at asc：不管一级评论按什么方向排，回复都按对话顺序从早到晚读
func (r *commentRepository) FindRepliesByParentIDs(parentIDs []uint64) ([]model.Comment, error) {
	var replies []model.Comment
	err := r.db.
		Preload("Account"). // 预加载二级评论的作者
		Where("parent_id IN (?)", parentIDs).
		Order("created_at asc").
		Find(&replies).Error
	return replies, err
}

// 只更新content，gorm会顺手更新updated_at；note_id/parent_id/account_id创建之后不可变
func (r *commentRepository) UpdateContent(commentID uint64, content string) error {
	return r.db.Model(&model.Comment{}).
		Where("id = ?", commentID).
		Update("content", content).Error
}

// 级联删除必须是一条语句：如果拆成两条DELETE，中间的空档可能有人对着已删除的父评论创建回复
// 返回RowsAffected，调用方要拿它去扣笔记上的评论计数
func (r *commentRepository) DeleteWithReplies(commentID uint64) (int64, error) {
	result := r.db.Where("id = ? OR parent_id = ?", commentID, commentID).Delete(&model.Comment{})
	return result.RowsAffected, result.Error
}
