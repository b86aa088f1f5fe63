package service

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/stitchline/stitchline-server/internal/config"
	"github.com/stitchline/stitchline-server/internal/constants"
	"github.com/stitchline/stitchline-server/internal/logger"
	"github.com/stitchline/stitchline-server/internal/models"
	"github.com/stitchline/stitchline-server/internal/repository"
)

// EmailService sends order status notifications. Sends are fire and
// forget from the caller's point of view; delivery failures are
// logged and retried by the queue, never surfaced to customers.
type EmailService struct {
	orderRepo repository.OrderRepository
	cfg       config.EmailConfig
}

// NewEmailService creates the email service.
func NewEmailService(orderRepo repository.OrderRepository, cfg config.EmailConfig) *EmailService {
	return &EmailService{
		orderRepo: orderRepo,
		cfg:       cfg,
	}
}

// Enabled reports whether SMTP is configured.
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg.Enabled && strings.TrimSpace(s.cfg.Host) != ""
}

// SendOrderStatusEmail notifies the order's email address of a status
// change. Returning an error lets the queue retry the delivery.
func (s *EmailService) SendOrderStatusEmail(orderID uint, status string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Warnw("status_email_order_missing", "order_id", orderID)
		return nil
	}
	if order.Email == "" {
		logger.Warnw("status_email_no_recipient", "order_id", orderID)
		return nil
	}

	subject, body := statusEmailContent(order, status)
	if !s.Enabled() {
		logger.Infow("status_email_skipped_disabled",
			"order_id", orderID,
			"to", order.Email,
			"subject", subject)
		return nil
	}

	if err := s.send(order.Email, subject, body); err != nil {
		logger.Errorw("status_email_send_failed", "order_id", orderID, "to", order.Email, "error", err)
		return err
	}
	logger.Infow("status_email_sent", "order_id", orderID, "to", order.Email, "status", status)
	return nil
}

func (s *EmailService) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	from := s.cfg.From
	fromHeader := from
	if s.cfg.FromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", s.cfg.FromName, from)
	}

	msg := strings.Builder{}
	msg.WriteString("From: " + fromHeader + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg.String()))
}

func statusEmailContent(order *models.Order, status string) (string, string) {
	var subject, lead string
	switch status {
	case constants.OrderStatusProcessing:
		subject = fmt.Sprintf("Payment received for order %s", order.Reference)
		lead = "We have received your payment and your order is being prepared."
	case constants.OrderStatusConfirmed, constants.OrderStatusCompleted:
		subject = fmt.Sprintf("Order %s confirmed", order.Reference)
		lead = "Your order has been confirmed and will ship soon."
	case constants.OrderStatusShipped:
		subject = fmt.Sprintf("Order %s shipped", order.Reference)
		lead = "Your order is on its way."
	case constants.OrderStatusDelivered:
		subject = fmt.Sprintf("Order %s delivered", order.Reference)
		lead = "Your order has been delivered. Thank you for shopping with us."
	case constants.OrderStatusCancelled:
		subject = fmt.Sprintf("Order %s cancelled", order.Reference)
		lead = "Your order has been cancelled."
	default:
		subject = fmt.Sprintf("Update on order %s", order.Reference)
		lead = fmt.Sprintf("Your order status is now %s.", status)
	}

	body := strings.Builder{}
	body.WriteString(lead + "\n\n")
	body.WriteString(fmt.Sprintf("Order reference: %s\n", order.Reference))
	body.WriteString(fmt.Sprintf("Total: %s %s\n", order.TotalAmount.StringFixed(2), order.Currency))
	if len(order.Items) > 0 {
		body.WriteString("\nItems:\n")
		for _, item := range order.Items {
			line := fmt.Sprintf("  %s x%d", item.NameSnapshot, item.Quantity)
			if item.Size != "" {
				line += fmt.Sprintf(" (size %s)", item.Size)
			}
			body.WriteString(line + "\n")
		}
	}
	return subject, body.String()
}
