package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrConfigInvalid       = errors.New("paystack config invalid")
	ErrRequestFailed       = errors.New("paystack request failed")
	ErrResponseInvalid     = errors.New("paystack response invalid")
	ErrSignatureInvalid    = errors.New("paystack signature invalid")
	ErrTransactionNotFound = errors.New("paystack transaction not found")
)

const (
	defaultAPIBaseURL = "https://api.paystack.co"
	defaultTimeout    = 12 * time.Second

	// SignatureHeader carries the webhook HMAC.
	SignatureHeader = "x-paystack-signature"
)

// Config holds gateway credentials and endpoint settings. Paystack
// signs webhooks with the same secret key used for API calls.
type Config struct {
	SecretKey  string
	APIBaseURL string
	Timeout    time.Duration
}

func (c *Config) normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// ValidateConfig checks the gateway settings.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	cfg.normalize()
	if cfg.SecretKey == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return fmt.Errorf("%w: api_base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

// VerifyResult is the parsed verify-transaction response. AmountKobo
// is in the currency's minor unit exactly as Paystack reports it.
type VerifyResult struct {
	Status          string
	Reference       string
	AmountKobo      int64
	Currency        string
	Channel         string
	GatewayResponse string
	TransactionID   string
	PaidAt          *time.Time
	Raw             map[string]interface{}
}

// WebhookEvent is the parsed webhook payload.
type WebhookEvent struct {
	Event         string
	Reference     string
	Status        string
	AmountKobo    int64
	Currency      string
	Channel       string
	TransactionID string
	PaidAt        *time.Time
	Raw           map[string]interface{}
}

// VerifyTransaction calls GET /transaction/verify/{reference} and
// parses the result. A 404 maps to ErrTransactionNotFound so callers
// can tell a missing transaction from a failed one.
func VerifyTransaction(ctx context.Context, cfg *Config, reference string) (*VerifyResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrConfigInvalid)
	}

	path := "/transaction/verify/" + url.PathEscape(reference)
	body, statusCode, err := doRequest(ctx, cfg, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	if statusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", reference, ErrTransactionNotFound)
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: verify status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	if ok, _ := raw["status"].(bool); !ok {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, readString(raw, "message"))
	}
	data := readMap(raw, "data")
	if data == nil {
		return nil, fmt.Errorf("%w: missing data object", ErrResponseInvalid)
	}

	result := &VerifyResult{
		Status:          strings.ToLower(readString(data, "status")),
		Reference:       readString(data, "reference"),
		AmountKobo:      readInt64(data, "amount"),
		Currency:        strings.ToUpper(readString(data, "currency")),
		Channel:         readString(data, "channel"),
		GatewayResponse: readString(data, "gateway_response"),
		TransactionID:   readString(data, "id"),
		PaidAt:          parseTimestamp(readString(data, "paid_at")),
		Raw:             raw,
	}
	if result.Reference == "" {
		return nil, fmt.Errorf("%w: missing transaction reference", ErrResponseInvalid)
	}
	return result, nil
}

// VerifyWebhookSignature checks the x-paystack-signature header, an
// HMAC-SHA512 of the raw body keyed with the secret key.
func VerifyWebhookSignature(cfg *Config, body []byte, signature string) error {
	if cfg == nil || strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fmt.Errorf("%w: signature header is missing", ErrSignatureInvalid)
	}
	mac := hmac.New(sha512.New, []byte(strings.TrimSpace(cfg.SecretKey)))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}
	return nil
}

// ComputeWebhookSignature returns the hex HMAC-SHA512 of body. Test
// helpers use it to build valid webhook requests.
func ComputeWebhookSignature(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(strings.TrimSpace(secretKey)))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhookEvent decodes a webhook body. The caller must have
// verified the signature first.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	raw, err := decodeRawMap(body)
	if err != nil {
		return nil, err
	}
	event := strings.ToLower(readString(raw, "event"))
	if event == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	data := readMap(raw, "data")
	if data == nil {
		return nil, fmt.Errorf("%w: missing data object", ErrResponseInvalid)
	}

	result := &WebhookEvent{
		Event:         event,
		Reference:     readString(data, "reference"),
		Status:        strings.ToLower(readString(data, "status")),
		AmountKobo:    readInt64(data, "amount"),
		Currency:      strings.ToUpper(readString(data, "currency")),
		Channel:       readString(data, "channel"),
		TransactionID: readString(data, "id"),
		PaidAt:        parseTimestamp(readString(data, "paid_at")),
		Raw:           raw,
	}
	if result.Reference == "" {
		return nil, fmt.Errorf("%w: missing transaction reference", ErrResponseInvalid)
	}
	return result, nil
}

func doRequest(ctx context.Context, cfg *Config, method, path string) ([]byte, int, error) {
	endpoint := cfg.APIBaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Timeout: cfg.Timeout}).Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil {
		return ""
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatInt(int64(typed), 10)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int:
		return strconv.Itoa(typed)
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil {
		return nil
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return nil
	}
	mapped, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	return mapped
}

func readInt64(raw map[string]interface{}, key string) int64 {
	if raw == nil {
		return 0
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return 0
	}
	switch typed := value.(type) {
	case int64:
		return typed
	case int:
		return int64(typed)
	case float64:
		return int64(typed)
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0
		}
		return parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}
