package notifiers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/jasonatclarkey/council-meeting-agenda-scraper/internal/logger"
)

// sqsClient defines the minimal subset of the SQS client used by sqsSink.
type sqsClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// sqsSink queues the message on AWS SQS for a downstream mailer. On FIFO
// queues messages are grouped per council and deduplicated by agenda document,
// so a re-run that notifies twice within the dedup window queues once.
type sqsSink struct {
	id       string
	queueURL string
	client   sqsClient
	log      logger.Logger
}

func newSQSSink(ctx context.Context, cfg SinkConfig, log logger.Logger) (Sink, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("notifier %q missing sqs configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.SQS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &sqsSink{
		id:       cfg.ID,
		queueURL: cfg.SQS.QueueURL,
		client:   sqs.NewFromConfig(awsCfg),
		log:      logger.Ensure(log),
	}, nil
}

func (s *sqsSink) ID() string   { return s.id }
func (s *sqsSink) Type() string { return TypeSQS }

// Deliver sends msg to the configured queue.
func (s *sqsSink) Deliver(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.queueURL),
		MessageBody:       aws.String(string(payload)),
		MessageAttributes: sqsAttributes(msg),
	}
	if strings.HasSuffix(s.queueURL, ".fifo") {
		input.MessageGroupId = aws.String(groupID(msg))
		input.MessageDeduplicationId = aws.String(dedupID(msg, payload))
	}

	if _, err := s.client.SendMessage(ctx, input); err != nil {
		s.log.ErrorObj("sqs notifier send failed", "notifier_sqs_error", map[string]any{
			"notifier_id": s.id,
			"error":       err.Error(),
		})
		return fmt.Errorf("send message to sqs: %w", err)
	}
	s.log.DebugObj("sqs notifier delivered message", "notifier_sqs_delivery", map[string]any{
		"notifier_id": s.id,
		"council":     msg.Council,
	})
	return nil
}

func sqsAttributes(msg Message) map[string]types.MessageAttributeValue {
	attrs := msg.Attributes()
	out := make(map[string]types.MessageAttributeValue, len(attrs))
	for k, v := range attrs {
		out[k] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	return out
}

// groupID orders FIFO deliveries per council. SQS allows 128 characters.
func groupID(msg Message) string {
	g := strings.Map(func(r rune) rune {
		if r > 0x20 && r < 0x7f {
			return r
		}
		return '_'
	}, msg.Council)
	if g == "" {
		return "agendas"
	}
	if len(g) > 128 {
		g = g[:128]
	}
	return g
}

// dedupID hashes the agenda document URL, falling back to the payload.
func dedupID(msg Message, payload []byte) string {
	src := []byte(msg.DocumentURL)
	if len(src) == 0 {
		src = payload
	}
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}
