// cmd/seeder/main.go

package main

import (
	"Blinko_Note/internal/model"
	"Blinko_Note/internal/service"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/go-faker/faker/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	fmt.Println("🚀 开始填充测试数据...")

	// --- 1. 连接数据库 ---
	// 注意：这里的DSN需要和你server/main.go中的保持一致
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(127.0.0.1:3306)/blinko_note?charset=utf8mb4&parseTime=True&loc=Local"
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ 无法连接到数据库: %v", err)
	}
	fmt.Println("✅ 数据库连接成功!")

	// --- 2. 清理旧数据 ---
	fmt.Println("🧹 正在清理旧数据...")
	// 为了确保每次填充都是干净的，先删除旧表再重建。注意：这将删除所有数据！
	db.Migrator().DropTable(&model.Comment{}, &model.Note{}, &model.User{})
	fmt.Println("✅ 旧表删除成功!")

	// 重新迁移，创建新表
	db.AutoMigrate(&model.User{}, &model.Note{}, &model.Comment{})
	fmt.Println("✅ 数据库迁移成功!")

	// --- 3. 创建用户 ---
	fmt.Println("👥 正在创建用户...")
	userCount := 50
	for i := 0; i < userCount; i++ {
		// 使用faker生成随机用户名和昵称
		username := faker.Username()

		// 为所有用户设置一个简单的默认密码 "password"
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("❌ 密码加密失败: %v", err)
		}

		user := model.User{
			Username: username,
			Password: string(hashedPassword),
			Nickname: faker.Name(),
		}
		db.Create(&user)
	}
	fmt.Printf("✅ 成功创建 %d 个用户!\n", userCount)

	// --- 4. 创建笔记 ---
	fmt.Println("📝 正在创建笔记...")
	noteCount := 200
	// 初始化随机数种子，确保每次运行生成的随机作者不同
	rand.Seed(time.Now().UnixNano())

	for i := 0; i < noteCount; i++ {
		note := model.Note{
			// 从已创建的用户中，随机选择一个作为作者
			AuthorID: uint64(rand.Intn(userCount) + 1),
			Content:  faker.Paragraph(),
		}
		db.Create(&note)
	}
	fmt.Printf("✅ 成功创建 %d 个笔记!\n", noteCount)

	// --- 5. 创建评论（一半登录用户，一半游客） ---
	fmt.Println("💬 正在创建评论...")
	commentCount := 500
	topLevelIDs := make([]uint64, 0, commentCount)
	for i := 0; i < commentCount; i++ {
		comment := model.Comment{
			NoteID:  uint64(rand.Intn(noteCount) + 1),
			Content: faker.Sentence(),
		}
		if rand.Intn(2) == 0 {
			accountID := uint64(rand.Intn(userCount) + 1)
			comment.AccountID = &accountID
		} else {
			// 游客评论：用假的连接信息走一遍真实的假名生成逻辑
			ip := faker.IPv4()
			ua := faker.Word() + "/1.0"
			comment.GuestName = service.GuestDisplayName(ip, ua)
			comment.GuestIP = ip
			comment.GuestUA = service.SerializeUserAgent(ua)
		}
		// 三分之一的评论挂成已有一级评论的回复
		if len(topLevelIDs) > 0 && rand.Intn(3) == 0 {
			parentID := topLevelIDs[rand.Intn(len(topLevelIDs))]
			comment.ParentID = &parentID
			// 回复必须和父评论同一个笔记
			var parent model.Comment
			db.First(&parent, parentID)
			comment.NoteID = parent.NoteID
		}
		db.Create(&comment)
		if comment.ParentID == nil {
			topLevelIDs = append(topLevelIDs, comment.ID)
		}
	}
	fmt.Printf("✅ 成功创建 %d 条评论!\n", commentCount)

	// --- 6. 回填笔记的评论计数 ---
	fmt.Println("🔢 正在回填评论计数...")
	db.Exec("UPDATE notes SET comment_count = (SELECT COUNT(*) FROM comments WHERE comments.note_id = notes.id)")
	fmt.Println("✅ 评论计数回填完成!")

	fmt.Println("🎉🎉🎉 所有测试数据填充完毕! 🎉🎉🎉")
}
