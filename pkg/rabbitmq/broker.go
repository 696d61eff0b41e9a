package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"gitlab.com/transcodeuz/hls-packager/config"
	"gitlab.com/transcodeuz/hls-packager/models"
	"gitlab.com/transcodeuz/hls-packager/pkg/logger"
)

// RabbitMQ holds the declared queues and the live channel.
type RabbitMQ struct {
	Queues  map[string]amqp.Queue
	Channel *amqp.Channel
	Logger  logger.Logger
	Cfg     config.Config
}

// New dials the broker and declares the job and status queues.
func New(cfg *config.Config, log logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{Logger: log, Cfg: *cfg}
	if err := r.connect(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		r.Cfg.RabbitMqUser,
		r.Cfg.RabbitMqPassword,
		r.Cfg.RabbitMqHost,
		r.Cfg.RabbitMqPort,
	))
	if err != nil {
		r.Logger.Error("Error while connecting to rabbitmq", logger.Error(err))
		return err
	}

	channel, err := conn.Channel()
	if err != nil {
		r.Logger.Error("Error while opening the channel", logger.Error(err))
		return err
	}

	queues := make(map[string]amqp.Queue, 2)
	for _, name := range []string{r.Cfg.ListenQueue, r.Cfg.WriteQueue} {
		q, err := channel.QueueDeclare(name, true, false, false, false, nil)
		if err != nil {
			r.Logger.Error("Error while declaring queue", logger.String("queue", name), logger.Error(err))
			return err
		}
		queues[name] = q
	}

	if err := channel.Qos(1, 0, false); err != nil {
		r.Logger.Error("Error while setting Qos", logger.Error(err))
		return err
	}

	r.Channel = channel
	r.Queues = queues
	r.Logger.Info("RabbitMQ channel is created...")
	return nil
}

// Consume starts delivering packaging jobs from the listen queue.
func (r *RabbitMQ) Consume() (<-chan amqp.Delivery, error) {
	return r.Channel.Consume(
		r.Queues[r.Cfg.ListenQueue].Name,
		"", false, false, false, false, nil,
	)
}

// PublishJobStatus pushes one status update to the write queue,
// reconnecting once if the channel has gone away.
func (r *RabbitMQ) PublishJobStatus(update *models.JobStatusUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}

	err = r.Channel.Publish("", r.Queues[r.Cfg.WriteQueue].Name, true, false, msg)
	if err == nil {
		return nil
	}

	r.Logger.Warn("Publish failed, reconnecting", logger.Error(err))
	if err := r.Reconnect(); err != nil {
		return err
	}
	return r.Channel.Publish("", r.Queues[r.Cfg.WriteQueue].Name, true, false, msg)
}

// Reconnect re-dials the broker and redeclares the queues.
func (r *RabbitMQ) Reconnect() error {
	r.Logger.Info("reconnecting to rabbitmq")
	return r.connect()
}
