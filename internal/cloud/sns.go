package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSClient publishes recommendation alerts.
type SNSClient struct {
	svc      *sns.Client
	topicArn string
	ctx      context.Context
}

// NewSNSClient creates a new SNS client instance.
func NewSNSClient(region, topicArn string) (*SNSClient, error) {
	ctx := context.Background()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &SNSClient{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
		ctx:      ctx,
	}, nil
}

// SendAlert publishes a notification to the configured topic.
func (c *SNSClient) SendAlert(subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	}

	if _, err := c.svc.Publish(c.ctx, input); err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}
	return nil
}

// SendHighRiskAlert notifies operators that a generated recommendation came
// back with high overall risk.
func (c *SNSClient) SendHighRiskAlert(userID, reportID string, criticalCount int) error {
	subject := fmt.Sprintf("Plan Advisor: high-risk recommendation for %s", userID)
	message := fmt.Sprintf(
		"High-Risk Recommendation\n\n"+
			"User: %s\n"+
			"Report: %s\n"+
			"Critical warnings: %d\n"+
			"Time: %s\n\n"+
			"Review before surfacing to the customer.",
		userID,
		reportID,
		criticalCount,
		time.Now().Format(time.RFC3339),
	)

	return c.SendAlert(subject, message)
}
