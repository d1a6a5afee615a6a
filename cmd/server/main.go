package main

import (
	"Blinko_Note/internal/data"
	"Blinko_Note/internal/handler"
	"Blinko_Note/internal/model"
	"Blinko_Note/internal/repository"
	"Blinko_Note/internal/router"
	"Blinko_Note/internal/service"
	"Blinko_Note/pkg/logger"
	"Blinko_Note/pkg/rabbitmq"
	"Blinko_Note/pkg/redis"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// 加载.env文件
	err := godotenv.Load()
	if err != nil {
		log.Fatalf(".env文件加载失败")
	}
	// 初始化logger
	logger.InitLogger()

	// 初始化Redis
	redisClient, err := redis.InitRedis()
	if err != nil {
		logger.Log.Fatalf("无法连接到Redis: %v", err)
	}
	logger.Log.Info("Redis连接成功")

	// 初始化RabbitMQ
	rabbitMQConn, err := rabbitmq.InitRabbitMQ()
	if err != nil {
		logger.Log.Fatalf("无法连接到RabbitMQ: %v", err)
	}
	defer rabbitMQConn.Close() // 确保程序退出时关闭连接
	logger.Log.Info("RabbitMQ连接成功")

	// 数据源名称，用户名:密码@网络协议(地址:端口号)/数据库名?charset=字符集&parseTime=是否解析时间&loc=时区
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(127.0.0.1:3306)/blinko_note?charset=utf8mb4&parseTime=True&loc=Local"
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatalf("无法连接到数据库: %v", err)
	}
	logger.Log.Info("数据库连接成功")
	// db.AutoMigrate(),没有这个表就创建,没有属性列则创建列,没有约束则增加约束;不会主动删除和修改
	err = db.AutoMigrate(&model.User{}, &model.Note{}, &model.Comment{})
	if err != nil {
		logger.Log.Fatalf("数据库迁移失败: %v", err)
	}
	logger.Log.Info("数据库迁移成功")

	userRepo := repository.NewUserRepository(db)
	noteRepo := repository.NewNoteRepository(db, redisClient)
	commentRepo := repository.NewCommentRepository(db)

	uow := data.NewUnitOfWork(db, noteRepo, commentRepo)
	mentionPub := service.NewMentionPublisher(rabbitMQConn)

	userService := service.NewUserService(userRepo)
	noteService := service.NewNoteService(noteRepo)
	commentService := service.NewCommentService(commentRepo, noteRepo, uow, mentionPub)

	userHandler := handler.NewUserHandler(userService)
	noteHandler := handler.NewNoteHandler(noteService)
	commentHandler := handler.NewCommentHandler(commentService)

	r := router.SetupRouter(userHandler, noteHandler, commentHandler)
	logger.Log.Println("服务器将在: 8080端口启动")

	if err := r.Run(":8080"); err != nil {
		logger.Log.Fatalf("服务器启动失败: %v", err)
	}
}
