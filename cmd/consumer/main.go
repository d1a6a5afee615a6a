package main

import (
	"Blinko_Note/internal/data"
	"Blinko_Note/internal/model"
	"Blinko_Note/internal/repository"
	"Blinko_Note/internal/service"
	"Blinko_Note/pkg/logger"
	"Blinko_Note/pkg/rabbitmq"
	"encoding/json"
	"errors"
	"os"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/streadway/amqp"
	"golang.org/x/crypto/bcrypt"
	gorm_mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// AI账号的用户名是固定的，消费者启动时保证它存在
const aiUsername = "BlinkoAI"

// 消费者进程：连接mysql和rabbitMQ，把"评论@了AI"的消息变成一条AI账号发的评论
func main() {
	// .env是可选的，消费者经常直接用环境变量跑
	_ = godotenv.Load()
	logger.InitLogger()

	// 连接数据库
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(127.0.0.1:3306)/blinko_note?charset=utf8mb4&parseTime=True&loc=Local"
	}
	db, err := gorm.Open(gorm_mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到数据库: %v", err)
	}
	// 连接RabbitMQ
	rabbitMQConn, err := rabbitmq.InitRabbitMQ()
	if err != nil {
		logger.Log.Fatalf("消费者无法连接到RabbitMQ: %v", err)
	}
	defer rabbitMQConn.Close()

	userRepo := repository.NewUserRepository(db)
	// 消费者进程不碰缓存，rdb传nil
	noteRepo := repository.NewNoteRepository(db, nil)
	commentRepo := repository.NewCommentRepository(db)
	uow := data.NewUnitOfWork(db, noteRepo, commentRepo)

	// 保证AI账号存在，拿到它的ID
	aiAccountID := ensureAIAccount(userRepo)

	responder := service.NewAIResponder()
	// 开始消费消息
	consumeAIMentions(rabbitMQConn, noteRepo, uow, responder, aiAccountID)
}

// 保证AI账号存在：1、按用户名查 2、没有就创建 3、创建撞上1062重复键说明别的实例抢先建好了，重查一次
func ensureAIAccount(userRepo repository.UserRepository) uint64 {
	user, err := userRepo.FindByUsername(aiUsername)
	if err == nil {
		return user.ID
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Fatalf("查询AI账号失败: %v", err)
	}

	// AI账号不需要能登录，密码随便给一个加密后的占位
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("blinko-ai-no-login"), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Fatalf("AI账号密码加密失败: %v", err)
	}
	newUser := &model.User{
		Username: aiUsername,
		Password: string(hashedPassword),
		Nickname: "Blinko AI",
		Image:    "https://blinko.ai/avatar.png",
	}
	if err := userRepo.Create(newUser); err != nil {
		var mysqlErr *mysql.MySQLError
		// 错误号 1062 就是 "Duplicate entry"：多个消费者同时启动时会撞，撞了就用别人建好的
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			user, err := userRepo.FindByUsername(aiUsername)
			if err != nil {
				logger.Log.Fatalf("查询AI账号失败: %v", err)
			}
			return user.ID
		}
		logger.Log.Fatalf("创建AI账号失败: %v", err)
	}
	logger.Log.WithField("user_id", newUser.ID).Info("AI账号创建成功")
	return newUser.ID
}

// AI提及消息消费者：1、通过mq的TCP连接创建channel 2、通过ch注册消费者 3、利用无缓冲通道持续消费消息
// 4、每条消息：笔记还在就让AI生成回复，作为AI账号的一级评论落库（评论+计数同一个事务），并对mq中的消息进行安全管理
func consumeAIMentions(conn *amqp.Connection, noteRepo repository.NoteRepository, uow data.UnitOfWork, responder *service.AIResponder, aiAccountID uint64) {
	ch, err := conn.Channel()
	if err != nil {
		logger.Log.Fatalf("无法打开Channel: %v", err)
	}
	defer ch.Close()

	// 队列声明是幂等的，消费者先起也不怕
	_, err = ch.QueueDeclare(service.QueueAIMention, true, false, false, false, nil)
	if err != nil {
		logger.Log.Fatalf("无法声明AI提及队列: %v", err)
	}

	msgs, err := ch.Consume(
		service.QueueAIMention, // queue
		"",                     // consumer
		false,                  // auto-ack: 手动确认，处理完才算完
		false,                  // exclusive
		false,                  // no-local
		false,                  // no-wait
		nil,                    // args
	)
	if err != nil {
		logger.Log.Fatalf("无法注册AI提及消费者: %v", err)
	}
	// 创建一个没有任何缓冲的bool类型通道
	forever := make(chan bool)

	go func() {
		// msgs不是切片，而是通道channel，如果通道为空不会结束循环，而会“阻塞”
		for d := range msgs {
			logCtx := logger.Log.WithField("body", string(d.Body)).WithField("redelivered", d.Redelivered)
			logCtx.Info("收到一条AI提及消息")

			var msg service.AIMentionMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				logCtx.WithError(err).Error("消息JSON解析失败")
				// 对于无法解析的“坏消息”，应该通知mq处理失败，并直接删除
				d.Nack(false, false)
				continue // 处理下一条
			}
			logCtx = logCtx.WithField("note_id", msg.NoteID)

			// 笔记在消息排队期间被删了的话，这条消息就没有意义了，直接确认丢弃
			if _, err := noteRepo.FindByID(msg.NoteID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					logCtx.Warn("笔记已不存在，丢弃AI提及消息")
					d.Ack(false)
					continue
				}
				logCtx.WithError(err).Error("查询笔记失败，将进行重试")
				d.Nack(false, true)
				continue
			}

			// 让AI生成回复内容，这一步可能很慢，但消费者进程慢一点无所谓
			reply, err := responder.GenerateReply(msg.Content)
			if err != nil {
				logCtx.WithError(err).Error("AI生成回复失败，将进行重试")
				d.Nack(false, true)
				continue
			}

			// 使用“工作单元”来执行我们的事务性操作：AI评论入库+笔记计数+1
			opErr := uow.Execute(func(repos *data.TransactionalRepositories) error {
				aiComment := &model.Comment{
					NoteID:    msg.NoteID,
					Content:   reply,
					AccountID: &aiAccountID,
				}
				if err := repos.CommentRepo.Create(aiComment); err != nil {
					return err
				}
				return repos.NoteRepo.IncrementCommentCount(msg.NoteID, 1)
			})
			// 根据数据库操作的结果，来决定如何“确认”消息
			if opErr != nil {
				var mysqlErr *mysql.MySQLError
				// 用errors.As来检查错误的“根”是不是一个MySQLError
				if errors.As(opErr, &mysqlErr) && mysqlErr.Number == 1062 {
					// 错误号 1062 就是 "Duplicate entry"
					logCtx.WithError(opErr).Warn("处理消息时出现重复键错误，可能是一次重复消费，消息将被确认为成功。")
					d.Ack(false)
				} else {
					// 其他类型错误，才要求重试
					logCtx.WithError(opErr).Error("处理消息失败，将进行重试")
					d.Nack(false, true)
				}
			} else {
				logCtx.Info("AI回复已落库")
				d.Ack(false)
			}
		}
	}()
	logger.Log.Info(" [*] 等待AI提及消息中. 按 CTRL+C 退出")
	// 尝试从forever通道里接收一个值，但没有发送者，这会阻止main函数退出
	<-forever
}
