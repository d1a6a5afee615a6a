package service

import (
	"Blinko_Note/internal/data"
	"Blinko_Note/internal/model"
	"Blinko_Note/internal/repository"
	"Blinko_Note/pkg/logger"
	"errors"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrNoteNotFound   = errors.New("笔记不存在")
	ErrParentNotFound = errors.New("回复的评论不存在")
	// "评论不存在"和"评论不是你的"故意合并成同一个错误，防止用报错探测别人评论的存在性
	ErrCommentNotFound = errors.New("评论不存在或无权操作")
)

// CreateCommentInput 创建评论需要的全部信息
// AccountID为nil表示游客，这时ClientIP和UserAgent用来合成游客的假名
type CreateCommentInput struct {
	NoteID    uint64
	Content   string
	ParentID  *uint64
	AccountID *uint64
	ClientIP  string
	UserAgent string
}

type CommentService interface {
	// 创建评论（一级或二级），登录用户和游客都走这个入口
	CreateComment(input CreateCommentInput) (*model.Comment, error)
	// 获取一个笔记的一级评论分页 + 每条一级评论挂着的全部二级评论
	ListComments(noteID uint64, page, size int, orderBy string) (int64, []model.Comment, map[uint64][]*model.Comment, error)
	// 只有评论的账号作者能改，游客评论谁都改不了
	UpdateComment(commentID, accountID uint64, content string) (*model.Comment, error)
	// 只有评论的账号作者能删，删一级评论会把它的回复一起带走
	DeleteComment(commentID, accountID uint64) error
}

type commentService struct {
	commentRepo repository.CommentRepository
	noteRepo    repository.NoteRepository
	uow         data.UnitOfWork

	mentionPub MentionPublisher
}

func NewCommentService(commentRepo repository.CommentRepository, noteRepo repository.NoteRepository, uow data.UnitOfWork, mentionPub MentionPublisher) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		noteRepo:    noteRepo,
		uow:         uow,
		mentionPub:  mentionPub,
	}
}

// 创建评论：1、笔记必须存在 2、有parentID的话，父评论必须存在且挂在同一个笔记下 3、作者二选一（账号 or 游客假名）
// 4、评论入库+笔记计数在同一个事务里 5、入库成功后如果正文@了AI，异步投递一条消息，不等结果
func (s *commentService) CreateComment(input CreateCommentInput) (*model.Comment, error) {
	// 前置检查(a)：笔记存在性
	if _, err := s.noteRepo.FindByID(input.NoteID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	// 前置检查(b)：父评论存在性，且必须和新评论属于同一个笔记
	parentID := input.ParentID
	if parentID != nil {
		parent, err := s.commentRepo.FindByID(*parentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}
		if parent.NoteID != input.NoteID {
			// 跨笔记的parentID一律当作"父评论不存在"
			return nil, ErrParentNotFound
		}
		// 对二级评论的回复不再往下挂第三层，折叠到同一个父评论下面
		if parent.ParentID != nil {
			parentID = parent.ParentID
		}
	}

	newComment := &model.Comment{
		NoteID:   input.NoteID,
		Content:  input.Content,
		ParentID: parentID,
	}
	if input.AccountID != nil {
		// 登录用户：记账号ID，游客字段全部留空
		newComment.AccountID = input.AccountID
	} else {
		// 游客：账号ID留空，用连接信息合成一个展示用的假名
		newComment.GuestName = GuestDisplayName(input.ClientIP, input.UserAgent)
		newComment.GuestIP = input.ClientIP
		newComment.GuestUA = SerializeUserAgent(input.UserAgent)
	}

	// 评论入库和笔记计数+1要么一起成功，要么一起回滚
	err := s.uow.Execute(func(repos *data.TransactionalRepositories) error {
		if err := repos.CommentRepo.Create(newComment); err != nil {
			return err
		}
		return repos.NoteRepo.IncrementCommentCount(input.NoteID, 1)
	})
	if err != nil {
		return nil, err
	}

	// 事务提交之后才谈AI：投递是射后不管的，投递失败只记日志，绝不影响评论创建的结果
	if ContainsAIMention(input.Content) {
		msg := AIMentionMessage{NoteID: input.NoteID, Content: input.Content}
		go func() {
			if err := s.mentionPub.Publish(msg); err != nil {
				logger.Log.WithError(err).
					WithField("note_id", msg.NoteID).
					Error("AI提及消息投递失败，评论本身不受影响")
			}
		}()
	}

	// 创建成功后，立刻把它带着关联数据再查出来，FindByID能顺带Preload出作者信息
	return s.commentRepo.FindByID(newComment.ID)
}

// 获取笔记的评论列表：1、整理分页参数 2、total和当前页的一级评论并发查 3、根据一级评论的ID切片查所有二级评论 4、把二级评论挂载（map）到一级评论下
func (s *commentService) ListComments(noteID uint64, page, size int, orderBy string) (int64, []model.Comment, map[uint64][]*model.Comment, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	// 只认asc，其他一律按默认的desc处理
	if orderBy != "asc" {
		orderBy = "desc"
	}
	// size：每页大小。page:当前页码。offset: “跳过” 多少条记录，再开始取数据。
	offset := (page - 1) * size

	// COUNT和分页查询互相不依赖，用errgroup并发跑
	var total int64
	var parentComments []model.Comment
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		total, err = s.commentRepo.CountTopLevel(noteID)
		return err
	})
	g.Go(func() error {
		var err error
		parentComments, err = s.commentRepo.FindTopLevelByNoteID(noteID, offset, size, orderBy)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, nil, nil, err
	}
	if len(parentComments) == 0 {
		return total, parentComments, nil, nil // 这一页没有一级评论，直接返回
	}

	// 创建切片，将每个一级评论的ID放入，方便二级评论查询
	parentIDs := make([]uint64, 0, len(parentComments))
	for _, pc := range parentComments {
		parentIDs = append(parentIDs, pc.ID)
	}
	// 一次性查询所有相关的二级评论（不分页，全量挂上去，repo里固定按时间正序）
	replies, err := s.commentRepo.FindRepliesByParentIDs(parentIDs)
	if err != nil {
		return 0, nil, nil, err
	}
	// 在内存中进行数据编排，将二级评论挂载到对应的一级评论上
	replyMap := make(map[uint64][]*model.Comment)
	for i := range replies {
		reply := replies[i]
		if reply.ParentID != nil {
			replyMap[*reply.ParentID] = append(replyMap[*reply.ParentID], &reply)
		}
	}
	return total, parentComments, replyMap, nil
}

// 改评论：所有权检查通过后，只动content和updated_at
func (s *commentService) UpdateComment(commentID, accountID uint64, content string) (*model.Comment, error) {
	// 一次查询同时回答"存在吗"和"是你的吗"，两种失败给同一个错误
	if _, err := s.commentRepo.FindOwned(commentID, accountID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	if err := s.commentRepo.UpdateContent(commentID, content); err != nil {
		return nil, err
	}
	return s.commentRepo.FindByID(commentID)
}

// 删评论：所有权检查通过后，一条SQL删掉评论和它的所有直接回复，并在同一个事务里扣掉笔记的评论计数
func (s *commentService) DeleteComment(commentID, accountID uint64) error {
	target, err := s.commentRepo.FindOwned(commentID, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	return s.uow.Execute(func(repos *data.TransactionalRepositories) error {
		affected, err := repos.CommentRepo.DeleteWithReplies(commentID)
		if err != nil {
			return err
		}
		// 级联可能一次删掉多条，计数按实际删除的行数扣
		return repos.NoteRepo.DecrementCommentCount(target.NoteID, affected)
	})
}
