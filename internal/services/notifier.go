package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/perkpoint/loyalty-backend/internal/models"
)

// Notifier delivers plaintext OTP codes to users. Issuance never
// depends on delivery succeeding.
type Notifier interface {
	SendOTP(channel models.OTPChannel, phone, code string) error
}

// TwilioNotifier sends OTP codes over SMS via Twilio. Telegram-channel
// codes are delivered by the bot gateways themselves, so this notifier
// only logs them.
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioNotifier creates a new Twilio notifier instance
func NewTwilioNotifier() (*TwilioNotifier, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_PHONE_NUMBER")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioNotifier{client: client, from: from}, nil
}

// SendOTP delivers the code over the requested channel.
func (t *TwilioNotifier) SendOTP(channel models.OTPChannel, phone, code string) error {
	if channel == models.ChannelTelegram {
		// The bot gateway that requested the code shows it in-chat.
		log.Printf("OTP for %s handed off to telegram gateway", phone)
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(phone)
	params.SetBody(fmt.Sprintf("Your verification code is %s. It expires in 5 minutes.", code))

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("Failed to send OTP SMS: %v", err)
		return err
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, *resp.ErrorMessage)
	}

	log.Printf("OTP SMS sent, SID: %s", *resp.Sid)
	return nil
}

// LogNotifier writes codes to the log instead of sending them. For
// local development without Twilio credentials.
type LogNotifier struct{}

func (LogNotifier) SendOTP(channel models.OTPChannel, phone, code string) error {
	log.Printf("[dev] OTP for %s via %s: %s", phone, channel, code)
	return nil
}
