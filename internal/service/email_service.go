package service

import (
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/sharperly/logistics-api/internal/config"
	"github.com/sharperly/logistics-api/internal/constants"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendVerifyCode 发送一次性验证码邮件
func (s *EmailService) SendVerifyCode(toEmail, fullName, code, purpose string) error {
	subject, body := buildVerifyCodeContent(fullName, code, purpose, s.resolveExpireMinutes())
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) resolveExpireMinutes() int {
	if s.cfg == nil {
		return resolveExpireMinutes(config.VerifyCodeConfig{})
	}
	return resolveExpireMinutes(s.cfg.VerifyCode)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	envelope := smtpEnvelope{
		from: s.cfg.From,
		to:   []string{toEmail},
		data: []byte(buildEmailMessage(buildFromAddress(s.cfg.From, s.cfg.FromName), toEmail, subject, body)),
	}
	client, err := dialSMTP(s.cfg.Host, s.cfg.Port, s.transportMode())
	if err != nil {
		return err
	}
	defer client.Close()
	if err := authenticateSMTP(client, s.cfg); err != nil {
		return err
	}
	return normalizeEmailSendError(envelope.deliver(client))
}

type smtpMode int

const (
	smtpPlain smtpMode = iota
	smtpStartTLS
	smtpImplicitTLS
)

func (s *EmailService) transportMode() smtpMode {
	switch {
	case s.cfg.UseSSL:
		return smtpImplicitTLS
	case s.cfg.UseTLS:
		return smtpStartTLS
	default:
		return smtpPlain
	}
}

// dialSMTP 按传输模式建立连接，STARTTLS 在返回前完成升级
func dialSMTP(host string, port int, mode smtpMode) (*smtp.Client, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	tlsCfg := &tls.Config{ServerName: host}
	if mode == smtpImplicitTLS {
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return nil, err
		}
		client, err := smtp.NewClient(conn, host)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return client, nil
	}
	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, err
	}
	if mode == smtpStartTLS {
		if err := client.StartTLS(tlsCfg); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

func authenticateSMTP(client *smtp.Client, cfg *config.EmailConfig) error {
	if cfg.Username == "" && cfg.Password == "" {
		return nil
	}
	if ok, _ := client.Extension("AUTH"); !ok {
		return nil
	}
	return client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host))
}

type smtpEnvelope struct {
	from string
	to   []string
	data []byte
}

func (e smtpEnvelope) deliver(client *smtp.Client) error {
	if err := client.Mail(e.from); err != nil {
		return err
	}
	for _, rcpt := range e.to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(e.data); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

const emailSignature = "SHARPERLY - The Dispatch Giant of Africa"

func buildVerifyCodeContent(fullName, code, purpose string, expireMinutes int) (string, string) {
	greeting := "Hello,"
	if name := strings.TrimSpace(fullName); name != "" {
		greeting = fmt.Sprintf("Hello %s,", name)
	}
	expiry := fmt.Sprintf("This code will expire in %d minutes.", expireMinutes)

	switch strings.ToLower(strings.TrimSpace(purpose)) {
	case constants.OTPPurposeResetPassword:
		body := strings.Join([]string{
			greeting,
			"You have requested a password reset for your SHARPERLY account.",
			fmt.Sprintf("Your password reset code is: %s", code),
			expiry,
			"If you didn't request this, please ignore this email.",
			"--\n" + emailSignature,
		}, "\n\n")
		return "SHARPERLY - Password Reset Code", body
	case constants.OTPPurposeResendVerification:
		body := strings.Join([]string{
			greeting,
			fmt.Sprintf("Your new email verification code is: %s", code),
			expiry,
			"--\n" + emailSignature,
		}, "\n\n")
		return "SHARPERLY - New Verification Code", body
	default:
		body := strings.Join([]string{
			greeting,
			"Thank you for registering with SHARPERLY - The Dispatch Giant of Africa.",
			fmt.Sprintf("Your email verification code is: %s", code),
			expiry,
			"If you didn't create an account, please ignore this email.",
			"--\n" + emailSignature,
		}, "\n\n")
		return "SHARPERLY - Verify Your Email Address", body
	}
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	headers := [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("UTF-8", subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
	}
	var sb strings.Builder
	for _, h := range headers {
		sb.WriteString(h[0])
		sb.WriteString(": ")
		sb.WriteString(h[1])
		sb.WriteString("\r\n")
	}
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return sb.String()
}

func normalizeEmailSendError(err error) error {
	if isEmailRecipientRejected(err) {
		return fmt.Errorf("%w: %v", ErrEmailRecipientRejected, err)
	}
	return err
}

var recipientRejectedPhrases = []string{
	"no such recipient",
	"no such user",
	"recipient not found",
	"recipient address rejected",
	"invalid recipient",
	"user unknown",
	"unknown user",
	"unknown mailbox",
	"mailbox unavailable",
}

// isEmailRecipientRejected 识别收件人被拒，优先看 SMTP 状态码
func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 550, 551, 553:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	for _, phrase := range recipientRejectedPhrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}
