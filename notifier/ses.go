package notifier

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	goerrors "github.com/goliatone/go-errors"
)

// SESOptions configures the AWS SES v2 delivery backend
type SESOptions struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	From      string `yaml:"from"`
}

// SESDelivery sends mail through the AWS SES v2 API
type SESDelivery struct {
	client *sesv2.Client
	from   string
}

var _ Delivery = (*SESDelivery)(nil)

// NewSESDelivery creates an SES API backed delivery
func NewSESDelivery(ctx context.Context, opts SESOptions) (*SESDelivery, error) {
	creds := credentials.NewStaticCredentialsProvider(
		opts.AccessKey,
		opts.SecretKey,
		"", // session token (empty for static creds)
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load AWS config")
	}

	return &SESDelivery{
		client: sesv2.NewFromConfig(awsCfg),
		from:   opts.From,
	}, nil
}

// Send implements Delivery.
func (d *SESDelivery) Send(ctx context.Context, to, subject string, content EmailContent) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(d.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data: aws.String(subject),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data: aws.String(renderHTML(content)),
					},
					Text: &types.Content{
						Data: aws.String(renderText(content)),
					},
				},
			},
		},
	}

	if _, err := d.client.SendEmail(ctx, input); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to send email via SES")
	}

	return nil
}

func renderHTML(c EmailContent) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body style="font-family: sans-serif; margin: 0; padding: 24px; background-color: #f6f6f6;">
<span style="display: none; max-height: 0; overflow: hidden;">%s</span>
<div style="max-width: 560px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 32px;">
<h1 style="font-size: 20px; margin-top: 0;">%s</h1>
<p style="font-size: 15px; line-height: 1.6;">%s</p>
<p style="margin: 28px 0;">
<a href="%s" style="background: #1a73e8; color: #ffffff; padding: 12px 24px; border-radius: 4px; text-decoration: none;">%s</a>
</p>
<p style="font-size: 13px; color: #666666;">If the button does not work, copy this link into your browser:<br>%s</p>
</div>
</body>
</html>`,
		c.Heading, c.PreviewText, c.Heading, c.BodyText, c.ActionURL, c.ActionText, c.ActionURL)
}

func renderText(c EmailContent) string {
	return fmt.Sprintf("%s\n\n%s\n\n%s: %s\n", c.Heading, c.BodyText, c.ActionText, c.ActionURL)
}
