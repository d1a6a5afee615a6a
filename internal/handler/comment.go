package handler

import (
	"Blinko_Note/internal/dto"
	"Blinko_Note/internal/service"
	"Blinko_Note/pkg/logger"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CommentHandler interface {
	CreateCommentForNote(c *gin.Context)
	GetComments(c *gin.Context)
	UpdateComment(c *gin.Context)
	DeleteComment(c *gin.Context)
}

type commentHandler struct {
	CommentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) CommentHandler {
	return &commentHandler{
		CommentService: commentService,
	}
}

type CreateCommentRequest struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *uint64 `json:"parent_id"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// 从context里取可选的登录身份：走了可选认证中间件，登录了就有userID，没登录就是游客
// jwt.MapClaims中的数字相关会自动解析为float64，而context中的值又会被转化为interface{}
func optionalAccountID(c *gin.Context) *uint64 {
	userIDFloat, exists := c.Get("userID")
	if !exists {
		return nil
	}
	id := uint64(userIDFloat.(float64))
	return &id
}

// 创建评论：1、解析URL中的noteID参数 2、解析Body，进行Content格式匹配 3、取可选的登录身份，没有就当游客
// 4、service层做存在性检查并落库，游客身份由连接信息现场合成
func (h *commentHandler) CreateCommentForNote(c *gin.Context) {
	// URL解析参数获得string格式，利用strconv.ParseUint将string转化为uint64
	noteID, err := strconv.ParseUint(c.Param("note_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的笔记ID") // 400
		return
	}

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("评论参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数") // 400
		return
	}

	accountID := optionalAccountID(c)

	// 正式进入业务前，将logger格式整理好
	logCtx := logger.Log.WithField("note_id", noteID)
	if accountID != nil {
		logCtx = logCtx.WithField("account_id", *accountID)
	} else {
		logCtx = logCtx.WithField("guest", true)
	}
	logCtx.Info("开始创建评论")

	comment, err := h.CommentService.CreateComment(service.CreateCommentInput{
		NoteID:    noteID,
		Content:   req.Content,
		ParentID:  req.ParentID,
		AccountID: accountID,
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		// 笔记或父评论不存在都是前置检查失败，404；其他才是真错误
		if errors.Is(err, service.ErrNoteNotFound) || errors.Is(err, service.ErrParentNotFound) {
			sendErrorResponse(c, http.StatusNotFound, err.Error()) // 404
			return
		}
		logCtx.WithError(err).Error("创建评论失败")
		sendErrorResponse(c, http.StatusInternalServerError, "评论失败") // 500
		return
	}

	// 业务成功，打上返回的comment的ID
	logCtx.WithField("comment_id", comment.ID).Info("评论创建成功")
	c.JSON(http.StatusCreated, gin.H{ // 201
		"message": "评论成功",
		"data":    dto.ToCommentResponse(comment),
	})
}

// 获取一个笔记的评论列表：1、提取URL中noteID参数 2、从查询参数获取分页信息，并提供默认值 3、service查一级评论分页+全部二级评论 4、dto层挂载二级评论
func (h *commentHandler) GetComments(c *gin.Context) {
	noteID, err := strconv.ParseUint(c.Param("note_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的笔记ID") // 400
		return
	}
	// 在URL的查询参数里（?后面的部分）找page这个键，没找到就返回默认值“1”
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	orderBy := c.DefaultQuery("order_by", "desc")

	total, parentComments, replyMap, err := h.CommentService.ListComments(noteID, page, size, orderBy)
	if err != nil {
		sendErrorResponse(c, http.StatusInternalServerError, "获取评论列表失败") // 500
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "获取评论列表成功",
		"data":    dto.ToCommentListResponse(total, parentComments, replyMap),
	})
}

// 改评论：1、解析commentID 2、Body里取新content 3、从context取已认证的userID 4、service层做所有权检查并更新
func (h *commentHandler) UpdateComment(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的评论ID") // 400
		return
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Log.WithError(err).Error("改评论参数解析失败")
		sendErrorResponse(c, http.StatusBadRequest, "无效的参数") // 400
		return
	}

	// 防御性编程，其实这条路由一定挂了认证中间件，但就怕程序员误用
	userIDFloat, exists := c.Get("userID")
	if !exists {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证") // 401
		return
	}
	accountID := uint64(userIDFloat.(float64))

	logCtx := logger.Log.WithField("account_id", accountID).WithField("comment_id", commentID)
	logCtx.Info("开始修改评论")

	comment, err := h.CommentService.UpdateComment(commentID, accountID, req.Content)
	if err != nil {
		// "不存在"和"不是你的"是同一个错误同一个状态码，不能让人探测出别人评论的存在性
		if errors.Is(err, service.ErrCommentNotFound) {
			sendErrorResponse(c, http.StatusNotFound, err.Error()) // 404
			return
		}
		logCtx.WithError(err).Error("修改评论失败")
		sendErrorResponse(c, http.StatusInternalServerError, "修改失败") // 500
		return
	}

	logCtx.Info("评论修改成功")
	c.JSON(http.StatusOK, gin.H{
		"message": "修改成功",
		"data":    dto.ToCommentResponse(comment),
	})
}

// 删评论：1、解析commentID 2、从context取已认证的userID 3、service层做所有权检查，一条SQL带走评论和它的回复
func (h *commentHandler) DeleteComment(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("comment_id"), 10, 64)
	if err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "无效的评论ID") // 400
		return
	}

	userIDFloat, exists := c.Get("userID")
	if !exists {
		sendErrorResponse(c, http.StatusUnauthorized, "用户未认证") // 401
		return
	}
	accountID := uint64(userIDFloat.(float64))

	logCtx := logger.Log.WithField("account_id", accountID).WithField("comment_id", commentID)
	logCtx.Info("开始删除评论")

	if err := h.CommentService.DeleteComment(commentID, accountID); err != nil {
		if errors.Is(err, service.ErrCommentNotFound) {
			sendErrorResponse(c, http.StatusNotFound, err.Error()) // 404
			return
		}
		logCtx.WithError(err).Error("删除评论失败")
		sendErrorResponse(c, http.StatusInternalServerError, "删除失败") // 500
		return
	}

	logCtx.Info("评论删除成功")
	c.JSON(http.StatusOK, gin.H{
		"message": "删除成功",
		"data":    gin.H{"success": true},
	})
}
