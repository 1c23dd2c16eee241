package plugins

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"text/template"
	"time"

	"github.com/contactdesk/contactdesk/internal/notify"
	"github.com/contactdesk/contactdesk/internal/schema"
	"github.com/contactdesk/contactdesk/pkg/logger"
)

var notificationChannels = map[string]bool{
	"email":      true,
	"sms":        true,
	"push":       true,
	"whatsapp":   true,
	"voice_call": true,
}

type messageTemplate struct {
	subject     string
	body        *template.Template
	attachments []string
}

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Option("missingkey=zero").Parse(text))
}

var messageTemplates = map[string]messageTemplate{
	"esim_activation": {
		subject:     "Your eSIM is ready for activation",
		body:        mustTemplate("esim_activation", "Your {{or .planName \"Family Unlimited 5G EU\"}} plan is ready! Use the activation code: {{or .activationCode \"ABC123XYZ789\"}}"),
		attachments: []string{"qr_code.png", "activation_guide.pdf"},
	},
	"order_confirmation": {
		subject: "Order Confirmation",
		body:    mustTemplate("order_confirmation", "Thank you for your order{{with .customerName}}, {{.}}{{end}}. Order ID: {{or .orderId \"ord_789\"}}"),
	},
	"payment_reminder": {
		subject: "Payment reminder",
		body:    mustTemplate("payment_reminder", "A payment of {{or .amount \"your open balance\"}} is due on {{or .dueDate \"the due date\"}}."),
	},
	"service_alert": {
		subject: "Service alert",
		body:    mustTemplate("service_alert", "{{or .message \"We are aware of a service disruption in your area and are working on it.\"}}"),
	},
	"welcome_message": {
		subject: "Welcome!",
		body:    mustTemplate("welcome_message", "Welcome{{with .customerName}}, {{.}}{{end}}! Your account is ready."),
	},
}

type sentMessage struct {
	MessageID string    `json:"messageId"`
	Channel   string    `json:"channel"`
	To        string    `json:"to"`
	Template  string    `json:"templateId"`
	Status    string    `json:"status"`
	SentAt    time.Time `json:"sentAt"`
	Receipt   string    `json:"receipt,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Notifications renders templated customer messages and hands them to the
// configured notify.Sender. Sent messages are kept for delivery lookups.
type Notifications struct {
	now    func() time.Time
	sender notify.Sender
	log    *logger.Logger

	mu   sync.RWMutex
	sent map[string]sentMessage
}

func NewNotifications(d Deps) *Notifications {
	return &Notifications{
		now:    d.Now,
		sender: d.Notifier,
		log:    d.Log.Named("notifications"),
		sent:   make(map[string]sentMessage),
	}
}

func (*Notifications) Name() string { return "Notifications" }
func (*Notifications) Description() string {
	return "Multi-channel notification service for sending emails, SMS, push notifications, and other customer communications"
}

func (n *Notifications) Operations() []schema.Operation {
	return []schema.Operation{
		{
			Name:        "Send",
			Description: "Sends notifications to customers via email, SMS, push notifications, or other channels. Uses templates for consistent messaging and supports personalization.",
			Params: []schema.Param{
				str("channel", "Communication channel: 'email', 'sms', 'push', 'whatsapp', 'voice_call'"),
				str("to", "Recipient address (email, phone number, device ID depending on channel)"),
				str("templateId", "Template ID: 'esim_activation', 'order_confirmation', 'payment_reminder', 'service_alert', 'welcome_message'"),
				optional(obj("params", "Template parameters object for personalization (e.g., {customerName: 'John', activationCode: 'ABC123'})")),
			},
			Invoke: n.send,
		},
		{
			Name:        "GetDeliveryStatus",
			Description: "Retrieves delivery status and engagement metrics for sent notifications. Useful for confirming message delivery and customer engagement.",
			Params:      []schema.Param{str("messageId", "Message ID from previous send operation")},
			Invoke:      n.deliveryStatus,
		},
		{
			Name:        "SendBulk",
			Description: "Send bulk notifications",
			Params: []schema.Param{
				str("channel", "Communication channel for every recipient"),
				strList("recipients", "Recipient addresses"),
				str("templateId", "Template ID"),
				optional(obj("params", "Template parameters shared by all recipients")),
			},
			Invoke: n.sendBulk,
		},
	}
}

func (n *Notifications) render(templateID string, params map[string]any) (notify.Message, []string, error) {
	tmpl, ok := messageTemplates[templateID]
	if !ok {
		return notify.Message{Template: templateID, Subject: "Notification", Body: "You have a new message"}, nil, nil
	}
	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, params); err != nil {
		return notify.Message{}, nil, fmt.Errorf("render template %s: %w", templateID, err)
	}
	return notify.Message{Template: templateID, Subject: tmpl.subject, Body: body.String()}, tmpl.attachments, nil
}

func (n *Notifications) send(ctx context.Context, args schema.Args) (any, error) {
	channel := args.String("channel")
	if !notificationChannels[channel] {
		return nil, fmt.Errorf("unsupported channel %q", channel)
	}
	msg, attachments, err := n.render(args.String("templateId"), args.Object("params"))
	if err != nil {
		return nil, err
	}
	msg.Channel, msg.To = channel, args.String("to")

	rec := sentMessage{
		MessageID: newID("msg"),
		Channel:   channel,
		To:        msg.To,
		Template:  msg.Template,
		Status:    "sent",
		SentAt:    n.now(),
	}
	receipt, sendErr := n.sender.Send(ctx, msg)
	if sendErr != nil {
		rec.Status, rec.Error = "failed", sendErr.Error()
	}
	rec.Receipt = receipt
	n.store(rec)

	if sendErr != nil {
		n.log.Warnw("Notification delivery failed", "message", rec.MessageID, "sender", n.sender.Name(), "err", sendErr)
		return nil, fmt.Errorf("delivery via %s failed: %w", n.sender.Name(), sendErr)
	}

	deliveryConfirmation := "automatic"
	if channel == "email" {
		deliveryConfirmation = "requested"
	}
	return map[string]any{
		"messageId":         rec.MessageID,
		"channel":           channel,
		"to":                msg.To,
		"templateId":        msg.Template,
		"status":            rec.Status,
		"sentAt":            rec.SentAt,
		"estimatedDelivery": rec.SentAt.Add(time.Minute),
		"content": map[string]any{
			"subject":     msg.Subject,
			"body":        msg.Body,
			"attachments": attachments,
		},
		"trackingEnabled":      true,
		"deliveryConfirmation": deliveryConfirmation,
	}, nil
}

func (n *Notifications) store(rec sentMessage) {
	n.mu.Lock()
	n.sent[rec.MessageID] = rec
	n.mu.Unlock()
}

func (n *Notifications) deliveryStatus(_ context.Context, args schema.Args) (any, error) {
	id := args.String("messageId")
	n.mu.RLock()
	rec, ok := n.sent[id]
	n.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("message %q not found", id)
	}
	if rec.Status == "sent" && n.now().Sub(rec.SentAt) >= time.Minute {
		rec.Status = "delivered"
	}
	return rec, nil
}

func (n *Notifications) sendBulk(ctx context.Context, args schema.Args) (any, error) {
	channel := args.String("channel")
	if !notificationChannels[channel] {
		return nil, fmt.Errorf("unsupported channel %q", channel)
	}
	recipients := args.Strings("recipients")
	if len(recipients) == 0 {
		return nil, fmt.Errorf("recipients is empty")
	}
	msg, _, err := n.render(args.String("templateId"), args.Object("params"))
	if err != nil {
		return nil, err
	}
	msg.Channel, msg.To = channel, fmt.Sprintf("%d recipients", len(recipients))
	if _, err := n.sender.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("delivery via %s failed: %w", n.sender.Name(), err)
	}
	return map[string]any{
		"batchId":             newID("batch"),
		"recipientCount":      len(recipients),
		"status":              "processing",
		"estimatedCompletion": n.now().Add(5 * time.Minute),
	}, nil
}
