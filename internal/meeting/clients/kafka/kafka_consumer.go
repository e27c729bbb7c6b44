package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	customerrors "github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
)

// ResponseMessage — событие ответа участника, приходящее из внешней интеграции.
type ResponseMessage struct {
	MeetingID string `json:"meetingId"`
	UserID    string `json:"userId"`
	Response  string `json:"response"`
}

type ResponseHandler interface {
	RecordResponse(ctx context.Context, meetingID, userID string, status models.ResponseStatus) error
	Advance(ctx context.Context, meetingID string) error
}

type Consumer struct {
	reader          *kafka.Reader
	dlqWriter       *kafka.Writer
	responseHandler ResponseHandler
	logger          *slog.Logger
	responsesTopic  string
	dlqTopic        string
}

func NewConsumer(
	brokers []string,
	groupID string,
	responsesTopic string,
	dlqTopic string,
	responseHandler ResponseHandler,
	logger *slog.Logger,
) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          responsesTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: 1 * time.Second,
		Logger:         kafka.LoggerFunc(logger.Debug),
		ErrorLogger:    kafka.LoggerFunc(logger.Error),
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        dlqTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return &Consumer{
		reader:          reader,
		dlqWriter:       dlqWriter,
		responseHandler: responseHandler,
		logger:          logger,
		responsesTopic:  responsesTopic,
		dlqTopic:        dlqTopic,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info("Запуск потребления ответов участников из Kafka",
		"topic", c.responsesTopic,
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Остановка потребления сообщений из Kafka")
				return
			default:
				msg, err := c.reader.ReadMessage(ctx)
				if err != nil {
					c.logger.Error("Ошибка при чтении сообщения из Kafka",
						"error", err,
					)

					continue
				}

				c.logger.Info("Получено сообщение из Kafka",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
				)

				if err := c.processMessage(ctx, &msg); err != nil {
					c.logger.Error("Ошибка при обработке сообщения",
						"error", err,
					)
				}
			}
		}
	}()
}

func (c *Consumer) processMessage(ctx context.Context, msg *kafka.Message) error {
	var responseMessage ResponseMessage

	if err := json.Unmarshal(msg.Value, &responseMessage); err != nil {
		c.logger.Error("Ошибка при десериализации сообщения",
			"error", err,
		)

		if sendErr := c.sendToDLQ(ctx, msg.Value, fmt.Sprintf("Ошибка десериализации: %s", err)); sendErr != nil {
			c.logger.Error("Ошибка при отправке сообщения в DLQ",
				"error", sendErr,
			)
		}

		return fmt.Errorf("ошибка при десериализации сообщения: %w", err)
	}

	if responseMessage.MeetingID == "" || responseMessage.UserID == "" {
		newErr := &customerrors.ErrInvalidArgument{Message: "отсутствует meetingId или userId"}

		if sendErr := c.sendToDLQ(ctx, msg.Value, newErr.Error()); sendErr != nil {
			c.logger.Error("Ошибка при отправке сообщения в DLQ",
				"error", sendErr,
			)
		}

		return newErr
	}

	status, ok := models.ParseResponseStatus(responseMessage.Response)
	if !ok {
		newErr := &customerrors.ErrInvalidArgument{Message: "неизвестный вариант ответа: " + responseMessage.Response}

		if sendErr := c.sendToDLQ(ctx, msg.Value, newErr.Error()); sendErr != nil {
			c.logger.Error("Ошибка при отправке сообщения в DLQ",
				"error", sendErr,
			)
		}

		return newErr
	}

	if err := c.responseHandler.RecordResponse(ctx, responseMessage.MeetingID, responseMessage.UserID, status); err != nil {
		return fmt.Errorf("ошибка при записи ответа участника: %w", err)
	}

	if err := c.responseHandler.Advance(ctx, responseMessage.MeetingID); err != nil {
		return fmt.Errorf("ошибка при пересмотре состояния встречи: %w", err)
	}

	c.logger.Info("Сообщение успешно обработано",
		"meetingID", responseMessage.MeetingID,
	)

	return nil
}

func (c *Consumer) sendToDLQ(ctx context.Context, message []byte, errMsg string) error {
	c.logger.Info("Отправка сообщения в DLQ",
		"error", errMsg,
		"topic", c.dlqTopic,
	)

	err := c.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte("error"),
		Value: message,
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(errMsg)},
			{Key: "timestamp", Value: []byte(time.Now().Format(time.RFC3339))},
		},
		Time: time.Now(),
	})
	if err != nil {
		c.logger.Error("Ошибка при отправке сообщения в DLQ",
			"error", err,
		)

		return fmt.Errorf("ошибка при отправке сообщения в DLQ: %w", err)
	}

	return nil
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return err
	}

	return c.dlqWriter.Close()
}
