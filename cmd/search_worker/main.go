package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/sobhankiani/shopc-user-service/config"
	"github.com/sobhankiani/shopc-user-service/internal/domain/event"
	"github.com/sobhankiani/shopc-user-service/pkg/helpers"
	"github.com/sobhankiani/shopc-user-service/pkg/mailer"
)

// The search worker is a downstream consumer of the user domain-event feed.
// It keeps the users search index in sync with published public records and
// greets new accounts by email. Events are notifications: the index is a
// projection, never a source of truth.

type envelope struct {
	Subject event.Subject   `json:"subject"`
	Data    json.RawMessage `json:"data"`
}

type worker struct {
	es     *elasticsearch.Client
	index  string
	mail   *mailer.Mailgun
	logger *logrus.Logger
}

func main() {
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-search-worker", cfg.Env)

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		log.Fatalf("elasticsearch client: %v", err)
	}

	var mg *mailer.Mailgun
	if cfg.MailSendEnabled && cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" && cfg.MailgunSender != "" {
		mg = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	} else {
		logger.Info("mail sending disabled; welcome emails will be skipped")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if err := ch.ExchangeDeclare(cfg.EventsExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		log.Fatalf("exchange declare: %v", err)
	}
	if _, err := ch.QueueDeclare(cfg.SearchQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}
	if err := ch.QueueBind(cfg.SearchQueue, "#", cfg.EventsExchange, false, nil); err != nil {
		log.Fatalf("queue bind: %v", err)
	}

	msgs, err := ch.Consume(cfg.SearchQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	w := &worker{es: es, index: cfg.ESUsersIndex, mail: mg, logger: logger}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			if err := w.handle(context.Background(), msg.Body); err != nil {
				logger.WithError(err).Warn("event handling failed")
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		}
	}()

	logger.Info("search worker consuming user events")
	<-stop
	logger.Info("shutting down search worker")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
	}
}

func (w *worker) handle(ctx context.Context, body []byte) error {
	var ev envelope
	if err := json.Unmarshal(body, &ev); err != nil {
		return err
	}

	switch ev.Subject {
	case event.UserCreated:
		var data event.UserData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return err
		}
		if err := w.indexUser(ctx, data); err != nil {
			return err
		}
		w.sendWelcome(ctx, data)
		return nil
	case event.UserUpdated:
		var data event.UserData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return err
		}
		return w.indexUser(ctx, data)
	case event.UserDeleted:
		var data event.UserData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return err
		}
		return w.deleteUser(ctx, data.ID)
	case event.UserActived, event.UserDeactived:
		var data event.ActivationData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return err
		}
		return w.patchUser(ctx, data.ID, map[string]any{"isActive": data.IsActive})
	case event.UserToAdmin, event.AdminToUser:
		var data event.RoleData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return err
		}
		return w.patchUser(ctx, data.ID, map[string]any{"version": data.Version})
	default:
		w.logger.WithField("subject", string(ev.Subject)).Debug("ignoring unknown subject")
		return nil
	}
}

func (w *worker) indexUser(ctx context.Context, data event.UserData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := esapi.IndexRequest{
		Index:      w.index,
		DocumentID: data.ID,
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}.Do(c, w.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		w.logger.WithFields(logrus.Fields{"status": res.Status(), "user_id": data.ID}).Warn("es index response error")
	}
	return nil
}

func (w *worker) patchUser(ctx context.Context, id string, doc map[string]any) error {
	b, err := json.Marshal(map[string]any{"doc": doc})
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := esapi.UpdateRequest{
		Index:      w.index,
		DocumentID: id,
		Body:       strings.NewReader(string(b)),
	}.Do(c, w.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		w.logger.WithFields(logrus.Fields{"status": res.Status(), "user_id": id}).Warn("es update response error")
	}
	return nil
}

func (w *worker) deleteUser(ctx context.Context, id string) error {
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := esapi.DeleteRequest{Index: w.index, DocumentID: id}.Do(c, w.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		w.logger.WithFields(logrus.Fields{"status": res.Status(), "user_id": id}).Warn("es delete response error")
	}
	return nil
}

func (w *worker) sendWelcome(ctx context.Context, data event.UserData) {
	if w.mail == nil {
		return
	}
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := w.mail.SendWelcome(c, data.Email, data.Name); err != nil {
		w.logger.WithError(err).WithField("user_id", data.ID).Warn("welcome email failed")
	}
}
