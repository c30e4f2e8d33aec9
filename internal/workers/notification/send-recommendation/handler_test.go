// internal/workers/notification/send-recommendation/handler_test.go
package sendrecommendation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"rental-workers/internal/common/aws"
	"rental-workers/internal/common/camunda/camundatest"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, from, to, subject, textBody, htmlBody string) (string, error) {
	args := m.Called(ctx, from, to, subject, textBody, htmlBody)
	return args.String(0), args.Error(1)
}

type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) SendSMS(ctx context.Context, phoneNumber, message, senderID string) (string, error) {
	args := m.Called(ctx, phoneNumber, message, senderID)
	return args.String(0), args.Error(1)
}

type stubSESAPI struct {
	input *ses.SendEmailInput
}

func (s *stubSESAPI) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	s.input = params
	return &ses.SendEmailOutput{MessageId: awssdk.String("ses-123")}, nil
}

func createTestConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		EmailEnabled: true,
		FromEmail:    "noreply@galindo.id",
		SMSEnabled:   true,
		SenderID:     "GALINDO",
		MaxVehicles:  5,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func createBenchmarkLogger(b *testing.B) logger.Logger {
	zapLogger, _ := zap.NewProduction()
	return logger.NewZapAdapter(zapLogger)
}

func vehicles(n int) []models.Vehicle {
	out := make([]models.Vehicle, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Vehicle{
			ID:         int64(i),
			Name:       "Avanza " + string(rune('A'+i-1)),
			Brand:      "Toyota",
			Type:       "MPV",
			Seat:       7,
			DailyPrice: int64(300000 + i*50000),
			Branch:     &models.Branch{City: "Jakarta"},
		})
	}
	return out
}

func createTestInput() *Input {
	return &Input{
		RecipientEmail: "budi@example.com",
		RecipientPhone: "+6281234567890",
		Prompt:         "mobil keluarga 7 orang di jakarta",
		Reason:         "Keluarga besar, butuh MPV",
		Results:        vehicles(2),
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_SendsBothChannels(t *testing.T) {
	email := new(MockEmailSender)
	sms := new(MockSMSSender)
	email.On("SendEmail", mock.Anything, "noreply@galindo.id", "budi@example.com", emailSubject,
		mock.MatchedBy(func(body string) bool { return strings.Contains(body, "Rp 350.000/hari") }),
		mock.AnythingOfType("string")).Return("email-1", nil)
	sms.On("SendSMS", mock.Anything, "+6281234567890",
		mock.MatchedBy(func(text string) bool { return strings.HasPrefix(text, "Rekomendasi: Avanza A Rp 350.000/hari") }),
		"GALINDO").Return("sms-1", nil)

	handler := NewHandler(createTestConfig(), email, sms, createTestLogger(t))
	output, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{ChannelEmail, ChannelSMS}, output.Channels)
	assert.Equal(t, "email-1", output.EmailMessageID)
	assert.Equal(t, "sms-1", output.SMSMessageID)
	_, err = uuid.Parse(output.NotificationID)
	assert.NoError(t, err)

	email.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestHandler_Execute_Disabled(t *testing.T) {
	tests := []struct {
		name   string
		config func(*Config)
		input  func(*Input)
	}{
		{
			name:   "both channels disabled",
			config: func(c *Config) { c.EmailEnabled, c.SMSEnabled = false, false },
			input:  func(*Input) {},
		},
		{
			name:   "no contact details",
			config: func(*Config) {},
			input:  func(i *Input) { i.RecipientEmail, i.RecipientPhone = "", "" },
		},
		{
			name:   "email disabled and no phone",
			config: func(c *Config) { c.EmailEnabled = false },
			input:  func(i *Input) { i.RecipientPhone = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestConfig()
			tt.config(cfg)
			input := createTestInput()
			tt.input(input)

			email := new(MockEmailSender)
			sms := new(MockSMSSender)
			handler := NewHandler(cfg, email, sms, createTestLogger(t))

			output, err := handler.Execute(context.Background(), input)
			require.NoError(t, err)
			assert.Equal(t, StatusDisabled, output.Status)
			assert.Empty(t, output.Channels)
			email.AssertNotCalled(t, "SendEmail")
			sms.AssertNotCalled(t, "SendSMS")
		})
	}
}

func TestHandler_Execute_PartialWhenOneChannelFails(t *testing.T) {
	email := new(MockEmailSender)
	sms := new(MockSMSSender)
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("email-1", nil)
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("Throttling: rate exceeded"))

	handler := NewHandler(createTestConfig(), email, sms, createTestLogger(t))
	output, err := handler.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, output.Status)
	assert.Equal(t, []string{ChannelEmail}, output.Channels)
	assert.Empty(t, output.SMSMessageID)
}

func TestHandler_Execute_ThroughSESClient(t *testing.T) {
	api := &stubSESAPI{}
	cfg := createTestConfig()
	cfg.SMSEnabled = false

	handler := NewHandler(cfg, aws.NewSESClientWithAPI(api), nil, createTestLogger(t))
	input := createTestInput()
	input.Prompt = "<script>alert(1)</script>"

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "ses-123", output.EmailMessageID)

	require.NotNil(t, api.input)
	assert.Equal(t, []string{"budi@example.com"}, api.input.Destination.ToAddresses)
	html := awssdk.ToString(api.input.Message.Body.Html.Data)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

// ==========================
// Rendering Tests
// ==========================

func TestRender_CapsVehicleList(t *testing.T) {
	input := createTestInput()
	input.Results = vehicles(8)

	msg, err := render(input, 5)
	require.NoError(t, err)

	assert.Contains(t, msg.Text, "5. Toyota Avanza E")
	assert.NotContains(t, msg.Text, "6. ")
	assert.Contains(t, msg.Text, "dan 3 kendaraan lainnya.")
	assert.Contains(t, msg.HTML, "dan 3 kendaraan lainnya.")
	assert.LessOrEqual(t, len([]rune(msg.SMS)), smsMaxLength)
	assert.True(t, strings.HasSuffix(msg.SMS, "...") || strings.HasSuffix(msg.SMS, "(+3 lainnya)"))
}

func TestRender_NoResults(t *testing.T) {
	input := createTestInput()
	input.Results = nil

	msg, err := render(input, 5)
	require.NoError(t, err)
	assert.Contains(t, msg.Text, noMatchText)
	assert.Contains(t, msg.HTML, noMatchText)
	assert.Equal(t, noMatchText, msg.SMS)
}

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "Rp 0"},
		{950, "Rp 950"},
		{1000, "Rp 1.000"},
		{350000, "Rp 350.000"},
		{1250000, "Rp 1.250.000"},
		{-5000, "Rp -5.000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRupiah(tt.amount))
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidContacts(t *testing.T) {
	handler := NewHandler(createTestConfig(), new(MockEmailSender), new(MockSMSSender), createTestLogger(t))

	input := createTestInput()
	input.RecipientEmail = "not-an-email"
	_, err := handler.Execute(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInput)

	input = createTestInput()
	input.RecipientPhone = "081234"
	_, err = handler.Execute(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHandler_Handle_AllChannelsFailRetries(t *testing.T) {
	email := new(MockEmailSender)
	sms := new(MockSMSSender)
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("MessageRejected"))
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("InvalidParameter"))

	handler := NewHandler(createTestConfig(), email, sms, createTestLogger(t))
	client := camundatest.NewJobClient()
	handler.Handle(client, camundatest.NewJob(1, TaskType, createTestInput()))

	require.Len(t, client.Failed(), 1)
	assert.Equal(t, int32(2), client.Failed()[0].Retries)
	assert.Empty(t, client.Completed())
}

func TestHandler_Handle_Completes(t *testing.T) {
	email := new(MockEmailSender)
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("email-1", nil)
	cfg := createTestConfig()
	cfg.SMSEnabled = false

	handler := NewHandler(cfg, email, nil, createTestLogger(t))
	client := camundatest.NewJobClient()
	handler.Handle(client, camundatest.NewJob(2, TaskType, createTestInput()))

	require.Len(t, client.Completed(), 1)
	vars := client.CompletedVariables(0)
	assert.Equal(t, StatusSent, vars["status"])
	assert.Equal(t, "email-1", vars["emailMessageId"])
}

func TestHandler_Handle_InvalidEmailThrows(t *testing.T) {
	handler := NewHandler(createTestConfig(), new(MockEmailSender), nil, createTestLogger(t))
	input := createTestInput()
	input.RecipientEmail = "budi@"

	client := camundatest.NewJobClient()
	handler.Handle(client, camundatest.NewJob(3, TaskType, input))

	require.Len(t, client.Thrown(), 1)
	assert.Equal(t, "INVALID_INPUT", client.Thrown()[0].ErrorCode)
}

// ==========================
// Benchmark Tests
// ==========================

func BenchmarkRender(b *testing.B) {
	input := createTestInput()
	input.Results = vehicles(12)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = render(input, 5)
	}
}
