// internal/notify/notifier.go

// Package notify delivers best-effort post-apply notifications: a
// confirmation email, an SMS, and a plan-audit document. Delivery
// failures are logged and never fail the apply that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"timesheet-planner/internal/common/config"
	"timesheet-planner/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/elastic/go-elasticsearch/v8"
)

// AppliedEvent describes one successful apply.
type AppliedEvent struct {
	TenantID     string    `json:"tenant_id"`
	ActorID      string    `json:"actor_id"`
	TechnicianID string    `json:"technician_id"`
	ActorEmail   string    `json:"actor_email,omitempty"`
	ActorPhone   string    `json:"actor_phone,omitempty"`
	Prompt       string    `json:"prompt"`
	Dates        []string  `json:"dates"`
	CreatedIDs   []string  `json:"created_ids"`
	Count        int       `json:"count"`
	AppliedAt    time.Time `json:"applied_at"`
}

type Notifier struct {
	ses    *ses.Client
	sns    *sns.Client
	es     *elasticsearch.Client
	cfg    config.NotificationConfig
	logger logger.Logger
}

func New(awsCfg aws.Config, esClient *elasticsearch.Client, cfg config.NotificationConfig, log logger.Logger) *Notifier {
	return &Notifier{
		ses:    ses.NewFromConfig(awsCfg),
		sns:    sns.NewFromConfig(awsCfg),
		es:     esClient,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// PlanApplied fans the event out to every enabled channel.
func (n *Notifier) PlanApplied(ctx context.Context, ev AppliedEvent) {
	if ev.AppliedAt.IsZero() {
		ev.AppliedAt = time.Now().UTC()
	}
	n.sendEmail(ctx, ev)
	n.sendSMS(ctx, ev)
	n.indexAudit(ctx, ev)
}

func (n *Notifier) sendEmail(ctx context.Context, ev AppliedEvent) {
	if !n.cfg.Email.Enabled || ev.ActorEmail == "" {
		return
	}

	subject := fmt.Sprintf("Timesheet plan applied: %d entries created", ev.Count)
	body := fmt.Sprintf(
		"Your timesheet plan was applied.\n\nTechnician: %s\nDates: %s\nEntries created: %d\n",
		ev.TechnicianID, joinDates(ev.Dates), ev.Count)

	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.cfg.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{ev.ActorEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		n.logger.Warn("apply confirmation email failed", map[string]interface{}{
			"error": err.Error(),
			"actor": ev.ActorID,
		})
		return
	}
	n.logger.Info("apply confirmation email sent", map[string]interface{}{"actor": ev.ActorID})
}

func (n *Notifier) sendSMS(ctx context.Context, ev AppliedEvent) {
	if !n.cfg.SMS.Enabled || ev.ActorPhone == "" {
		return
	}

	message := fmt.Sprintf("Timesheet plan applied: %d entries created for %s.", ev.Count, joinDates(ev.Dates))

	input := &sns.PublishInput{
		Message:     aws.String(message),
		PhoneNumber: aws.String(ev.ActorPhone),
	}
	if n.cfg.SMS.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(n.cfg.SMS.SenderID),
			},
		}
	}

	if _, err := n.sns.Publish(ctx, input); err != nil {
		n.logger.Warn("apply confirmation SMS failed", map[string]interface{}{
			"error": err.Error(),
			"actor": ev.ActorID,
		})
		return
	}
	n.logger.Info("apply confirmation SMS sent", map[string]interface{}{"actor": ev.ActorID})
}

// indexAudit writes the full event into the plan-audit index so support
// can reconstruct what a prompt produced.
func (n *Notifier) indexAudit(ctx context.Context, ev AppliedEvent) {
	if n.es == nil || n.cfg.AuditIndex == "" {
		return
	}

	doc, err := json.Marshal(ev)
	if err != nil {
		n.logger.Warn("audit document marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}

	res, err := n.es.Index(
		n.cfg.AuditIndex,
		bytes.NewReader(doc),
		n.es.Index.WithContext(ctx),
	)
	if err != nil {
		n.logger.Warn("audit document index failed", map[string]interface{}{"error": err.Error()})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		n.logger.Warn("audit document rejected", map[string]interface{}{"status": res.Status()})
		return
	}
	n.logger.Info("plan audit document indexed", map[string]interface{}{"index": n.cfg.AuditIndex})
}

func joinDates(dates []string) string {
	switch len(dates) {
	case 0:
		return "no dates"
	case 1:
		return dates[0]
	default:
		return fmt.Sprintf("%s to %s", dates[0], dates[len(dates)-1])
	}
}
