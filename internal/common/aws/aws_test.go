// internal/common/aws/aws_test.go
package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSES struct {
	mock.Mock
}

func (m *MockSES) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ses.SendEmailOutput), args.Error(1)
}

type MockSNS struct {
	mock.Mock
}

func (m *MockSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func TestSESClient_SendEmail(t *testing.T) {
	api := new(MockSES)
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return aws.ToString(in.Source) == "noreply@rental.test" &&
			in.Destination.ToAddresses[0] == "budi@example.com" &&
			aws.ToString(in.Message.Subject.Data) == "Rekomendasi" &&
			in.Message.Body.Html == nil
	})).Return(&ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil)

	id, err := NewSESClientWithAPI(api).SendEmail(context.Background(),
		"noreply@rental.test", "budi@example.com", "Rekomendasi", "isi", "")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	api.AssertExpectations(t)
}

func TestSESClient_SendEmailError(t *testing.T) {
	api := new(MockSES)
	api.On("SendEmail", mock.Anything, mock.Anything).Return(nil, errors.New("MessageRejected"))

	_, err := NewSESClientWithAPI(api).SendEmail(context.Background(), "a@b.c", "d@e.f", "s", "t", "<p>t</p>")
	assert.EqualError(t, err, "MessageRejected")
}

func TestSNSClient_SendSMS(t *testing.T) {
	api := new(MockSNS)
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		_, hasSender := in.MessageAttributes["AWS.SNS.SMS.SenderID"]
		return aws.ToString(in.PhoneNumber) == "+628123456789" && hasSender
	})).Return(&sns.PublishOutput{MessageId: aws.String("sms-1")}, nil)

	id, err := NewSNSClientWithAPI(api).SendSMS(context.Background(), "+628123456789", "halo", "RENTAL")
	require.NoError(t, err)
	assert.Equal(t, "sms-1", id)
	api.AssertExpectations(t)
}
