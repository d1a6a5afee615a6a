package repository

import (
	"Blinko_Note/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type NoteRepository interface {
	Create(note *model.Note) error
	FindLatest(limit uint64) ([]model.Note, error)
	FindByID(noteID uint64) (*model.Note, error)

	// 评论数冗余字段的维护，n是本次增减的条数（级联删除一次可能删掉多条）
	IncrementCommentCount(noteID uint64, n int64) error
	DecrementCommentCount(noteID uint64, n int64) error

	GetNoteCache(noteID uint64) (*model.Note, error)
	SetNoteCache(note *model.Note) error

	WithTx(tx *gorm.DB) NoteRepository
}

type noteRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewNoteRepository(db *gorm.DB, rdb *redis.Client) NoteRepository {
	return &noteRepository{
		db:  db,
		rdb: rdb,
	}
}

// WithTx 返回一个新的、使用事务的 noteRepository 实例，redis客户端原样带过去
func (r *noteRepository) WithTx(tx *gorm.DB) NoteRepository {
	return &noteRepository{
		db:  tx,
		rdb: r.rdb,
	}
}

func (r *noteRepository) Create(note *model.Note) error {
	return r.db.Create(note).Error
}

// 按时间倒序查询最新的笔记列表
func (r *noteRepository) FindLatest(limit uint64) ([]model.Note, error) {
	var notes []model.Note
	// Preload("Author")在查询笔记的同时，预加载关联的作者信息,时间倒序,限制数量
	err := r.db.Preload("Author").Order("created_at desc").Limit(int(limit)).Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// 利用noteID找笔记，preload其中的Author结构
func (r *noteRepository) FindByID(noteID uint64) (*model.Note, error) {
	// 1. 先从缓存读
	note, err := r.GetNoteCache(noteID)
	if err == nil && note != nil {
		// 缓存命中，直接返回
		return note, nil
	}

	// 2. 缓存未命中，从数据库读
	var dbNote model.Note
	err = r.db.Preload("Author").First(&dbNote, noteID).Error
	if err != nil {
		return nil, err // 数据库也没找到，就真的没有了
	}

	// 3. 读到数据后，写回缓存，方便下次读取
	_ = r.SetNoteCache(&dbNote)

	return &dbNote, nil
}

// 返回存储单个笔记信息的字符串Key
func (r *noteRepository) keyNoteInfo(noteID uint64) string {
	return fmt.Sprintf("note:info:%d", noteID)
}

// 从Redis缓存中获取单个Note信息：1、利用noteID组装key 2、拿key去rdb中寻找noteJSON 3、利用json.Unmarshal将拿到的noteJSON反序列化
func (r *noteRepository) GetNoteCache(noteID uint64) (*model.Note, error) {
	// 消费者进程和单元测试里rdb是nil，这时直接当缓存未命中
	if r.rdb == nil {
		return nil, nil
	}
	key := r.keyNoteInfo(noteID)
	// 使用GET命令获取存储在rdb里的JSON字符串
	noteJSON, err := r.rdb.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return nil, nil // 如果缓存不存在，但是Redis正常工作
	} else if err != nil {
		return nil, err // Redis本身出错了
	}
	// 将获取到的JSON字符串，反序列化回model.Note结构体
	var note model.Note
	if err := json.Unmarshal([]byte(noteJSON), &note); err != nil {
		return nil, err // JSON反序列化失败
	}
	return &note, nil
}

// 将单个笔记信息存入Redis缓存：1、组装key 2、序列化成JSON字符串 3、设置过期时间 4、SET进Redis
func (r *noteRepository) SetNoteCache(note *model.Note) error {
	if r.rdb == nil {
		return nil
	}
	key := r.keyNoteInfo(note.ID)
	noteJSON, err := json.Marshal(note)
	if err != nil {
		return err // JSON序列化失败
	}
	// 设置过期时间，再加上随机性防止缓存雪崩
	expiration := time.Minute*5 + time.Duration(rand.Intn(60))*time.Second
	return r.rdb.Set(context.Background(), key, noteJSON, expiration).Err()
}

// 缓存里的CommentCount是旧值，计数一变就把缓存删掉，下次读再回填
func (r *noteRepository) invalidateNoteCache(noteID uint64) {
	if r.rdb == nil {
		return
	}
	_ = r.rdb.Del(context.Background(), r.keyNoteInfo(noteID)).Err()
}

func (r *noteRepository) IncrementCommentCount(noteID uint64, n int64) error {
	// 使用GORM的表达式来执行原子更新：UPDATE `notes` SET `comment_count` = `comment_count` + n WHERE id = ?
	err := r.db.Model(&model.Note{}).Where("id = ?", noteID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", n)).Error
	if err != nil {
		return err
	}
	r.invalidateNoteCache(noteID)
	return nil
}

func (r *noteRepository) DecrementCommentCount(noteID uint64, n int64) error {
	// UPDATE `notes` SET `comment_count` = `comment_count` - n WHERE id = ? AND comment_count >= n
	err := r.db.Model(&model.Note{}).Where("id = ? AND comment_count >= ?", noteID, n).
		UpdateColumn("comment_count", gorm.Expr("comment_count - ?", n)).Error
	if err != nil {
		return err
	}
	r.invalidateNoteCache(noteID)
	return nil
}
