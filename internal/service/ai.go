package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/streadway/amqp"
)

const (
	// 触发AI回复的暗号，区分大小写、必须一字不差地出现在评论正文里
	AIMentionTrigger = "@Blinko AI"
	// 遵循：项目名.业务领域.实体/功能
	QueueAIMention = "blinko.ai_mention.queue"
)

// AIMentionMessage 定义了我们要在MQ中传递的消息结构，AI响应方只需要正文和笔记ID
type AIMentionMessage struct {
	NoteID  uint64 `json:"note_id"`
	Content string `json:"content"`
}

// ContainsAIMention 检测评论正文里有没有@Blinko AI
func ContainsAIMention(content string) bool {
	return strings.Contains(content, AIMentionTrigger)
}

// MentionPublisher 把"评论@了AI"这件事投递出去，发出去之后评论主流程就不管了
// 抽象成接口是为了测试时可以换成假的发布器，数清楚到底投递了几次
type MentionPublisher interface {
	Publish(msg AIMentionMessage) error
}

type rabbitMentionPublisher struct {
	rabbitMQConn *amqp.Connection
}

func NewMentionPublisher(rabbitMQConn *amqp.Connection) MentionPublisher {
	ch, err := rabbitMQConn.Channel()
	if err != nil {
		// 在实际项目中，这里应该有更健壮的错误处理和重试机制
		panic("Failed to open a channel")
	}
	// NewMentionPublisher执行完毕后，这个临时的Channel就被关闭了
	defer ch.Close()
	// 创建名叫"blinko.ai_mention.queue"的邮筒，有就不用创建（幂等）
	_, err = ch.QueueDeclare(
		QueueAIMention, // name
		true,           // durable: 队列持久化，即使RabbitMQ服务器重启，这个“邮筒”本身不会消失
		false,          // autoDelete：最后一个消费者断开连接，邮筒不会被自动拆除
		false,          // exclusive：非独占，多个不同的连接都可以访问这个邮筒
		false,          // noWait：同步等待RabbitMQ服务器确认“邮筒建好了”之后，再继续执行后面的代码
		nil,            // args
	)
	if err != nil {
		panic("Failed to declare a queue")
	}

	return &rabbitMentionPublisher{rabbitMQConn: rabbitMQConn}
}

// 发送消息到RabbitMQ：1、创建channel 2、序列化AIMentionMessage结构体 3、发布消息
func (p *rabbitMentionPublisher) Publish(msg AIMentionMessage) error {
	// 为每一个消息建立一个单独的channel，消息之间互不影响
	ch, err := p.rabbitMQConn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	// 将msg结构体序列化成一段JSON格式的字节流([]byte)
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return ch.Publish(
		"",             // exchange默认交换机
		QueueAIMention, // routing key “邮筒”名字 blinko.ai_mention.queue
		false,          // mandatory 高级路由功能
		false,          // immediate 高级路由功能
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // 确保消息持久化
		})
}

// AIResponder 是AI响应方的客户端，目前先Mock掉，等接真模型的时候换成HTTP调用
type AIResponder struct{}

func NewAIResponder() *AIResponder {
	return &AIResponder{}
}

// GenerateReply 模拟调用大模型生成回复
func (r *AIResponder) GenerateReply(content string) (string, error) {
	// 模拟耗时 2 秒
	time.Sleep(2 * time.Second)

	// 把暗号从正文里摘掉，剩下的才是用户真正想问的
	question := strings.TrimSpace(strings.ReplaceAll(content, AIMentionTrigger, ""))
	if question == "" {
		return "我在呢，有什么想问的都可以@我～", nil
	}
	// 简单的 Mock 逻辑：返回一个固定的前缀 + 用户的问题
	return "[Blinko AI] 关于“" + question + "”：这个问题我记下了，以下是我的理解和建议。", nil
}
