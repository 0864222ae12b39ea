package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/config"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

// 无法被解析或渲染的消息，重新入队也不会成功
var errMalformedMessage = errors.New("邮件信息格式错误")

type mailTemplate struct {
	file    string
	subject string
	data    func() any
}

var mailTemplates = map[string]mailTemplate{
	domain.MailTypeCreateUser: {
		file:    "new_account_email.html",
		subject: "监考安排系统 - 账户信息",
		data:    func() any { return &domain.CreateUserMailData{} },
	},
	domain.MailTypeDutyAssignment: {
		file:    "duty_assignment_email.html",
		subject: "监考安排系统 - 监考通知",
		data:    func() any { return &domain.DutyAssignmentMailData{} },
	},
}

// buildMail 根据消息类型选择模板并渲染邮件
func buildMail(from string, templateDir string, body []byte) (*mail.Msg, error) {
	var envelope struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}

	mt, ok := mailTemplates[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("%w: 不支持的邮件类型 %q", errMalformedMessage, envelope.Type)
	}

	data := mt.data()
	if err := json.Unmarshal(envelope.Data, data); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}
	if err := m.To(envelope.To); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}

	tmpl, err := template.ParseFiles(filepath.Join(templateDir, mt.file))
	if err != nil {
		return nil, err
	}
	if err := m.SetBodyHTMLTemplate(tmpl, data); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}
	m.Subject(mt.subject)

	return m, nil
}

func main() {
	templateDir := flag.String("templates", "./templates", "邮件模板所在目录")
	flag.Parse()

	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 声明队列，参数需要与 api 服务中的声明保持一致
	q, err := ch.QueueDeclare(
		"email_queue", // 队列名称
		true,          // 是否持久化
		false,         // 是否自动删除
		false,         // 是否独占
		false,         // 是否不等待
		nil,           // 额外参数
	)
	if err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name, // 队列
		"",     // 消费者标识，由 RabbitMQ 自动分配
		false,  // 手动确认消息
		false,  // 是否独占队列
		false,  // RabbitMQ 不支持 noLocal
		false,  // 是否不等待
		nil,    // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		return
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("消息通道已关闭")
					return
				}
				logger.Info("收到消息", slog.Int("size", len(msg.Body)))

				m, err := buildMail(cfg.Email.SMTP.Username, *templateDir, msg.Body)
				if err != nil {
					logger.Error("无法构建邮件", slog.String("error", err.Error()))
					// 格式错误的消息直接丢弃，模板文件读取失败时重新入队
					_ = msg.Nack(false, !errors.Is(err, errMalformedMessage))
					continue
				}

				if err := client.DialAndSend(m); err != nil {
					logger.Error("邮件发送失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // 将消息重新入队
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("等待消息...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	slog.Info("正在关闭 mail worker...")
	cancel()
	wg.Wait()
	slog.Info("mail worker 已成功关闭")
}
