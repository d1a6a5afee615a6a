package handler

import (
	"Blinko_Note/internal/dto"
	"Blinko_Note/internal/service"
	"Blinko_Note/pkg/logger"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type NoteHandler interface {
	CreateNote(c *gin.Context)
	GetFeed(c *gin.Context)
	GetNoteByID(c *gin.Context)
}

type noteHandler struct {
	NoteService service.NoteService
}

func NewNoteHandler(noteService service.NoteService) NoteHandler {
	return &noteHandler{NoteService: noteService}
}

type CreateNoteRequest struct {
	Content string `json:"content" binding:"required"`
}

// 发布笔记：1、解析Body 2、从context取已认证的userID 3、service层创建
func (h *noteHandler) CreateNote(c *gin.Context) {
	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("笔记参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数") // 400
		return
	}

	userIDFloat, exists := c.Get("userID")
	if !exists {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证") // 401
		return
	}
	authorID := uint64(userIDFloat.(float64))

	logCtx := logger.Log.WithField("author_id", authorID)
	logCtx.Info("开始发布笔记")

	note, err := h.NoteService.CreateNote(authorID, req.Content)
	if err != nil {
		logCtx.WithError(err).Error("发布笔记失败")
		sendErrorResponse(c, http.StatusInternalServerError, "发布失败") // 500
		return
	}

	logCtx.WithField("note_id", note.ID).Info("笔记发布成功")
	c.JSON(http.StatusCreated, gin.H{ // 201
		"message": "发布成功",
		"data":    dto.ToNoteResponse(note),
	})
}

// 获取最新笔记列表
func (h *noteHandler) GetFeed(c *gin.Context) {
	limit, _ := strconv.ParseUint(c.DefaultQuery("limit", "20"), 10, 64)

	notes, err := h.NoteService.GetFeed(limit)
	if err != nil {
		sendErrorResponse(c, http.StatusInternalServerError, "获取笔记列表失败") // 500
		return
	}

	responses := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		responses = append(responses, dto.ToNoteResponse(&notes[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "获取笔记列表成功",
		"data":    responses,
	})
}

// 获取单个笔记
func (h *noteHandler) GetNoteByID(c *gin.Context) {
	noteID, err := strconv.ParseUint(c.Param("note_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的笔记ID") // 400
		return
	}

	note, err := h.NoteService.GetNoteByID(noteID)
	if err != nil {
		sendErrorResponse(c, http.StatusNotFound, "笔记不存在") // 404
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取笔记成功",
		"data":    dto.ToNoteResponse(note),
	})
}
