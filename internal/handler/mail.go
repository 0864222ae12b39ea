package handler

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/config"
	"github.com/sysu-ecnc-dev/exam-duty/backend/internal/domain"
)

type mailPublisher interface {
	Publish(msg domain.MailMessage) error
}

type amqpMailPublisher struct {
	channel *amqp.Channel
	cfg     *config.Config
}

// Publish 将邮件序列化后发送到 email_queue，由 mail 服务负责真正的发送
func (p *amqpMailPublisher) Publish(msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		"email_queue",
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
