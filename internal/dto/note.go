package dto

import (
	"Blinko_Note/internal/model"
	"time"
)

type NoteResponse struct {
	ID           uint64    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Content      string    `json:"content"`
	CommentCount uint64    `json:"comment_count"`
	Author       struct {  // 在这里定义了Author的精确形状
		ID       uint64 `json:"id"`
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
	} `json:"author"`
}

// ToNoteResponse 把DB模型转换为API响应模型，并且正确利用preload返回的数据
func ToNoteResponse(note *model.Note) NoteResponse {
	resp := NoteResponse{
		ID:           note.ID,
		CreatedAt:    note.CreatedAt,
		Content:      note.Content,
		CommentCount: note.CommentCount,
	}
	// 检查Author是否被成功preload
	if note.Author.ID != 0 {
		resp.Author.ID = note.Author.ID
		resp.Author.Name = note.Author.Username
		resp.Author.Nickname = note.Author.Nickname
	} else {
		// 如果没有preload，就返回note结构体本身的
		resp.Author.ID = note.AuthorID
	}
	return resp
}
