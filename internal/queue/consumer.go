// Package queue contains the background consumer that listens to the
// auth.otp.requested queue and delivers each code by mail.
package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/modacart/auth-service/internal/mail"
)

// StartOTPConsumer connects to RabbitMQ, declares the auth.otp.requested
// queue (durable), and starts consuming messages. Each event is handed to
// the mail sender. The function runs a reconnect loop and keeps running
// across broker restarts; delivery errors are logged and the offending
// message rejected so the server continues operating.
func StartOTPConsumer(sender mail.Sender) {
    url := brokerURL()

    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("otp-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn, sender); err != nil {
            log.Printf("otp-consumer: consume loop ended: %v; reconnecting", err)
            // Sleep briefly before reconnect
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection, sender mail.Sender) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("otp-consumer: set QoS failed: %v", err)
    }

    _, err = ch.QueueDeclare(otpQueueName, true, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(otpQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(d.Body, sender); err != nil {
            log.Printf("otp-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, sender mail.Sender) error {
    var ev OTPRequestedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Email == "" || ev.Code == "" {
        return errors.New("event missing email or code")
    }

    subject := "Your verification code"
    if ev.Purpose == "password_reset" {
        subject = "Your password reset code"
    }
    text := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.\nIf you did not request it, ignore this message.",
        ev.Code, ev.ExpiresInMin)

    if err := sender.Send(ev.Email, subject, text); err != nil {
        return fmt.Errorf("deliver to %s: %w", ev.Email, err)
    }
    return nil
}
