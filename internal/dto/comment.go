package dto

import (
	"Blinko_Note/internal/model"
	"time"
)

// UserInfo 是评论旁边展示的作者公开视图，只暴露这四个安全字段
type UserInfo struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Image    string `json:"image"`
}

// ReplyResponse 是二级评论的响应结构
// 游客评论Author为null，靠GuestName展示；两者不会同时有值
type ReplyResponse struct {
	ID        uint64    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    *UserInfo `json:"author"`
	GuestName string    `json:"guest_name,omitempty"`
}

// CommentResponse 是一级评论的响应结构，它包含了二级评论列表
// 注意这是一个死板的两层结构：Replies里是ReplyResponse，不会再往下套，评论树最深就两层
type CommentResponse struct {
	ID        uint64          `json:"id"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Author    *UserInfo       `json:"author"`
	GuestName string          `json:"guest_name,omitempty"`
	Replies   []ReplyResponse `json:"replies"` // 二级评论列表
}

// CommentListResponse 评论列表的整体形状：total只数一级评论
type CommentListResponse struct {
	Total int64             `json:"total"`
	Items []CommentResponse `json:"items"`
}

// 安全地取作者视图：Account没被preload出来或者本来就是游客评论，都返回nil
func toAuthorInfo(comment *model.Comment) *UserInfo {
	if comment.AccountID == nil || comment.Account.ID == 0 {
		return nil
	}
	return &UserInfo{
		ID:       comment.Account.ID,
		Name:     comment.Account.Username,
		Nickname: comment.Account.Nickname,
		Image:    comment.Account.Image,
	}
}

func ToCommentResponse(comment *model.Comment) *CommentResponse {
	return &CommentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
		Author:    toAuthorInfo(comment),
		GuestName: comment.GuestName,
		Replies:   []ReplyResponse{},
	}
}

func ToReplyResponse(reply *model.Comment) *ReplyResponse {
	return &ReplyResponse{
		ID:        reply.ID,
		Content:   reply.Content,
		CreatedAt: reply.CreatedAt,
		UpdatedAt: reply.UpdatedAt,
		Author:    toAuthorInfo(reply),
		GuestName: reply.GuestName,
	}
}

// ToCommentListResponse 是我们的核心转换函数
// 它接收total、一批“一级评论”模型和它们对应的“二级评论”模型map，拼成最终的列表响应
func ToCommentListResponse(total int64, parentComments []model.Comment, groupReplies map[uint64][]*model.Comment) *CommentListResponse {
	// 创建一个有预估容量的切片，性能稍好
	items := make([]CommentResponse, 0, len(parentComments))

	for i := range parentComments {
		pc := parentComments[i]
		commentResp := *ToCommentResponse(&pc)
		// 查找该一级评论对应的二级评论列表（repo里已经按时间正序排好了）
		if replies, ok := groupReplies[pc.ID]; ok {
			for _, r := range replies {
				commentResp.Replies = append(commentResp.Replies, *ToReplyResponse(r))
			}
		}
		items = append(items, commentResp)
	}

	return &CommentListResponse{
		Total: total,
		Items: items,
	}
}
