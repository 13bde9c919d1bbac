// Package ses implements a Transport that delivers raw MIME messages via
// AWS SES v2.
package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shineum/email-sender-lite/internal/account"
	"github.com/shineum/email-sender-lite/internal/transport"
)

// API is the subset of the SES v2 client used by this transport.
// Used for testing with mock implementations.
type API interface {
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// ClientFactory builds an API client for a region and static key pair.
// Empty keys select the default AWS credential chain.
type ClientFactory func(ctx context.Context, region, accessKeyID, secretAccessKey string) (API, error)

// Transport sends through SES. An account's server is the AWS region and
// its user and password are the access key id and secret.
// @MX:ANCHOR: [AUTO] External system integration point for AWS SES
// @MX:REASON: All email delivery flows through this transport when an account selects ses
type Transport struct {
	newClient ClientFactory
}

// New creates a Transport backed by the real SES v2 client.
func New() *Transport {
	return &Transport{newClient: newSESClient}
}

// NewWithFactory creates a Transport with a custom client factory, used for testing.
func NewWithFactory(f ClientFactory) *Transport {
	return &Transport{newClient: f}
}

// Name returns the transport name.
func (t *Transport) Name() string {
	return account.TransportSES
}

// Dial records the region. No network traffic happens until Auth.
func (t *Transport) Dial(_ context.Context, acct account.Account) (transport.Session, error) {
	if acct.Server == "" {
		return nil, transport.Wrap(transport.OpDial, errors.New("SES region (server) is required"))
	}
	return &session{newClient: t.newClient, region: acct.Server}, nil
}

type session struct {
	newClient ClientFactory
	region    string
	client    API
}

// Auth builds the client and verifies the credentials with GetAccount.
func (s *session) Auth(ctx context.Context, user, password string) error {
	client, err := s.newClient(ctx, s.region, user, password)
	if err != nil {
		return transport.Wrap(transport.OpAuth, err)
	}
	if _, err := client.GetAccount(ctx, &sesv2.GetAccountInput{}); err != nil {
		return transport.Wrap(transport.OpAuth, err)
	}
	s.client = client
	return nil
}

// Send submits raw as-is. The destination carries the full envelope so Bcc
// recipients are delivered without appearing in the headers.
func (s *session) Send(ctx context.Context, from string, rcpts []string, raw []byte) error {
	if s.client == nil {
		return transport.Wrap(transport.OpSend, errors.New("session is not authenticated"))
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: rcpts,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{
				Data: raw,
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return transport.Wrap(transport.OpSend, err)
	}
	return nil
}

func (s *session) Close() error {
	s.client = nil
	return nil
}

func newSESClient(ctx context.Context, region, accessKeyID, secretAccessKey string) (API, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}

	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return sesv2.NewFromConfig(awsCfg), nil
}
