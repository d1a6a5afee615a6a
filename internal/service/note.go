package service

import (
	"Blinko_Note/internal/model"
	"Blinko_Note/internal/repository"
	"fmt"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
)

type NoteService interface {
	CreateNote(authorID uint64, content string) (*model.Note, error)
	GetFeed(limit uint64) ([]model.Note, error)

	GetNoteByID(noteID uint64) (*model.Note, error)
}

type noteService struct {
	sf singleflight.Group

	noteRepo repository.NoteRepository
}

func NewNoteService(noteRepo repository.NoteRepository) NoteService {
	return &noteService{
		noteRepo: noteRepo,
	}
}

func (s *noteService) CreateNote(authorID uint64, content string) (*model.Note, error) {
	newNote := &model.Note{
		AuthorID: authorID,
		Content:  content,
	}
	err := s.noteRepo.Create(newNote)
	if err != nil {
		return nil, err
	}
	return newNote, nil
}

// 获取笔记Feed流
func (s *noteService) GetFeed(limit uint64) ([]model.Note, error) {
	// 限制limit长度
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	notes, err := s.noteRepo.FindLatest(limit)
	if err != nil {
		return nil, err
	}

	return notes, nil
}

// 根据noteID查找笔记：1、查找Redis缓存 2、通过SingleFlight进行数据库查找，防止缓存击穿时一群请求同时砸向数据库
func (s *noteService) GetNoteByID(noteID uint64) (*model.Note, error) {
	note, err := s.noteRepo.GetNoteCache(noteID)
	if err == nil && note != nil {
		return note, nil
	}
	// 不是redis中没有，而是Redis本身出错了，应该记录日志并返回
	if err != nil && err != redis.Nil {
		return nil, err
	}
	// 缓存未命中，通过SingleFlight查找，同一时间同一个key只放一个请求进数据库
	key := fmt.Sprintf("get_note_%d", noteID)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		dbNote, dbErr := s.noteRepo.FindByID(noteID)
		if dbErr != nil {
			return nil, dbErr
		}
		// FindByID内部查询成功后已经写回缓存了
		return dbNote, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.Note), nil
}
