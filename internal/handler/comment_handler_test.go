package handler_test

import (
	"Blinko_Note/internal/data"
	"Blinko_Note/internal/dto"
	"Blinko_Note/internal/handler"
	"Blinko_Note/internal/model"
	"Blinko_Note/internal/repository"
	"Blinko_Note/internal/router"
	"Blinko_Note/internal/service"
	"Blinko_Note/pkg/logger"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Log = logrus.New()
	logger.Log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// 测试里不连RabbitMQ，发布器换成一个只记账的假货
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []service.AIMentionMessage
}

func (p *recordingPublisher) Publish(msg service.AIMentionMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

// 把整个服务搭在内存sqlite上，走真路由真中间件，不mock业务层
func setupTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Note{}, &model.Comment{}))

	userRepo := repository.NewUserRepository(db)
	noteRepo := repository.NewNoteRepository(db, nil)
	commentRepo := repository.NewCommentRepository(db)
	uow := data.NewUnitOfWork(db, noteRepo, commentRepo)

	userService := service.NewUserService(userRepo)
	noteService := service.NewNoteService(noteRepo)
	commentService := service.NewCommentService(commentRepo, noteRepo, uow, &recordingPublisher{})

	r := router.SetupRouter(
		handler.NewUserHandler(userService),
		handler.NewNoteHandler(noteService),
		handler.NewCommentHandler(commentService),
	)
	return r, db
}

func createUserAndNote(t *testing.T, db *gorm.DB, username string) (*model.User, *model.Note) {
	user := &model.User{Username: username, Password: "x", Nickname: username}
	require.NoError(t, db.Create(user).Error)
	note := &model.Note{AuthorID: user.ID, Content: "一条笔记"}
	require.NoError(t, db.Create(note).Error)
	return user, note
}

// 和登录接口发的token同一个口径
func tokenFor(t *testing.T, user *model.User) string {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(time.Hour).Unix(),
		"iat":      time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func doJSON(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "1.2.3.4:5678"
	req.Header.Set("User-Agent", "UA1")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type commentEnvelope struct {
	Message string              `json:"message"`
	Data    dto.CommentResponse `json:"data"`
}

type listEnvelope struct {
	Message string                  `json:"message"`
	Data    dto.CommentListResponse `json:"data"`
}

// 不带token发评论：照样成功，作者是空的，假名按连接信息合成
func TestGuestCreateComment(t *testing.T) {
	r, db := setupTestServer(t)
	createUserAndNote(t, db, "alice")

	w := doJSON(r, http.MethodPost, "/api/v1/notes/1/comments", "", gin.H{"content": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp commentEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Data.Author)
	assert.Equal(t, service.GuestDisplayName("1.2.3.4", "UA1"), resp.Data.GuestName)
	assert.Equal(t, "hello", resp.Data.Content)
}

// 对不存在的笔记发评论：404，库里一条都不能多
func TestCreateCommentNoteMissing(t *testing.T) {
	r, db := setupTestServer(t)

	w := doJSON(r, http.MethodPost, "/api/v1/notes/42/comments", "", gin.H{"content": "hello"})
	require.Equal(t, http.StatusNotFound, w.Code)

	var n int64
	require.NoError(t, db.Model(&model.Comment{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}

// 登录用户发评论+游客回复+拉列表，走完整条链路
func TestCreateReplyAndList(t *testing.T) {
	r, db := setupTestServer(t)
	alice, _ := createUserAndNote(t, db, "alice")
	token := tokenFor(t, alice)

	// 登录用户发一级评论
	w := doJSON(r, http.MethodPost, "/api/v1/notes/1/comments", token, gin.H{"content": "顶楼"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created commentEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.Data.Author)
	assert.Equal(t, "alice", created.Data.Author.Name)

	// 游客回复它
	w = doJSON(r, http.MethodPost, "/api/v1/notes/1/comments", "", gin.H{
		"content":   "游客路过",
		"parent_id": created.Data.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// 列表：total只数一级评论，回复挂在items里
	w = doJSON(r, http.MethodGet, "/api/v1/notes/1/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list listEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.EqualValues(t, 1, list.Data.Total)
	require.Len(t, list.Data.Items, 1)
	require.Len(t, list.Data.Items[0].Replies, 1)
	assert.Equal(t, "游客路过", list.Data.Items[0].Replies[0].Content)
	assert.Nil(t, list.Data.Items[0].Replies[0].Author)
}

// 改/删必须登录，不带token直接401
func TestMutationsRequireAuth(t *testing.T) {
	r, db := setupTestServer(t)
	alice, note := createUserAndNote(t, db, "alice")
	comment := &model.Comment{NoteID: note.ID, Content: "x", AccountID: &alice.ID}
	require.NoError(t, db.Create(comment).Error)

	w := doJSON(r, http.MethodPut, "/api/v1/comments/1", "", gin.H{"content": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(r, http.MethodDelete, "/api/v1/comments/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// 别人的评论动不了，而且报错和"评论不存在"一模一样
func TestMutateOthersCommentMasked(t *testing.T) {
	r, db := setupTestServer(t)
	alice, note := createUserAndNote(t, db, "alice")
	bob := &model.User{Username: "bob", Password: "x"}
	require.NoError(t, db.Create(bob).Error)
	comment := &model.Comment{NoteID: note.ID, Content: "alice的", AccountID: &alice.ID}
	require.NoError(t, db.Create(comment).Error)

	bobToken := tokenFor(t, bob)
	wOther := doJSON(r, http.MethodDelete, "/api/v1/comments/1", bobToken, nil)
	require.Equal(t, http.StatusNotFound, wOther.Code)
	wMissing := doJSON(r, http.MethodDelete, "/api/v1/comments/999", bobToken, nil)
	require.Equal(t, http.StatusNotFound, wMissing.Code)
	// 两种失败的响应体逐字节相同，谁也别想靠报错探测存在性
	assert.Equal(t, wMissing.Body.String(), wOther.Body.String())

	// 评论还活着
	var fresh model.Comment
	require.NoError(t, db.First(&fresh, comment.ID).Error)
	assert.Equal(t, "alice的", fresh.Content)
}

// 作者自己删：成功，回复一起消失
func TestOwnerDeleteCascades(t *testing.T) {
	r, db := setupTestServer(t)
	alice, note := createUserAndNote(t, db, "alice")
	top := &model.Comment{NoteID: note.ID, Content: "top", AccountID: &alice.ID}
	require.NoError(t, db.Create(top).Error)
	reply := &model.Comment{NoteID: note.ID, Content: "reply", ParentID: &top.ID, GuestName: "void-abcde"}
	require.NoError(t, db.Create(reply).Error)

	w := doJSON(r, http.MethodDelete, "/api/v1/comments/1", tokenFor(t, alice), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)

	var n int64
	require.NoError(t, db.Model(&model.Comment{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
}
