package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bkash-shop-backend/internal/apperr"
	"bkash-shop-backend/internal/config"
	"bkash-shop-backend/internal/model"
)

// ExecuteSuccessCode is the bKash status code of a successfully executed
// payment.
const ExecuteSuccessCode = "0000"

type BkashClient interface {
	CreatePayment(ctx context.Context, amount int64, payerReference, callbackURL, invoice string) (*model.BkashCreateResponse, error)
	ExecutePayment(ctx context.Context, paymentID string) (*model.BkashExecuteResponse, error)
	QueryPayment(ctx context.Context, paymentID string) (*model.BkashQueryResponse, error)
	RefundTransaction(ctx context.Context, paymentID, trxID string, amount int64, sku, reason string) (*model.BkashRefundResponse, error)
}

type bkashClientImpl struct {
	httpClient *http.Client
	baseURL    string
	appKey     string
	appSecret  string
	username   string
	password   string
	creds      *CredentialCache
	logger     *zap.Logger
}

func NewBkashClient(bkashCfg *config.Bkash, creds *CredentialCache, logger *zap.Logger) BkashClient {
	return &bkashClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   bkashCfg.BaseURL,
		appKey:    bkashCfg.AppKey,
		appSecret: bkashCfg.AppSecret,
		username:  bkashCfg.Username,
		password:  bkashCfg.Password,
		creds:     creds,
		logger:    logger,
	}
}

// getToken serves the cached token when it is fresh enough, otherwise tries
// a refresh exchange and falls back to a full grant.
func (c *bkashClientImpl) getToken(ctx context.Context) (string, error) {
	now := time.Now()
	if token, ok := c.creds.Valid(now); ok {
		return token, nil
	}

	if refresh := c.creds.RefreshToken(); refresh != "" {
		token, err := c.acquireToken(ctx, "/tokenized/checkout/token/refresh", &model.BkashTokenRequest{
			AppKey:       c.appKey,
			AppSecret:    c.appSecret,
			RefreshToken: refresh,
		})
		if err == nil {
			return token, nil
		}
		c.logger.Warn("bkash token refresh failed, falling back to grant", zap.Error(err))
	}

	return c.acquireToken(ctx, "/tokenized/checkout/token/grant", &model.BkashTokenRequest{
		AppKey:    c.appKey,
		AppSecret: c.appSecret,
	})
}

func (c *bkashClientImpl) acquireToken(ctx context.Context, path string, payload *model.BkashTokenRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("username", c.username)
	req.Header.Set("password", c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("bkash token endpoint %d: %s", resp.StatusCode, string(raw))
	}

	var result model.BkashTokenResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if result.IDToken == "" {
		return "", fmt.Errorf("bkash token endpoint returned no id_token: %s", string(raw))
	}

	c.creds.Store(result.IDToken, result.RefreshToken, result.ExpiresIn, time.Now())

	return result.IDToken, nil
}

func (c *bkashClientImpl) CreatePayment(ctx context.Context, amount int64, payerReference, callbackURL, invoice string) (*model.BkashCreateResponse, error) {
	payload := &model.BkashCreateRequest{
		Mode:                  "0011",
		PayerReference:        payerReference,
		CallbackURL:           callbackURL,
		Amount:                amountString(amount),
		Currency:              "BDT",
		Intent:                "sale",
		MerchantInvoiceNumber: invoice,
	}

	var result model.BkashCreateResponse
	if err := c.post(ctx, "/tokenized/checkout/create", payload, &result); err != nil {
		return nil, err
	}

	if result.PaymentID == "" || result.BkashURL == "" {
		return &result, &apperr.GatewayError{
			Op:         "create",
			StatusCode: result.StatusCode,
			Body:       result.StatusMessage,
		}
	}

	return &result, nil
}

func (c *bkashClientImpl) ExecutePayment(ctx context.Context, paymentID string) (*model.BkashExecuteResponse, error) {
	payload := &model.BkashExecuteRequest{PaymentID: paymentID}

	var result model.BkashExecuteResponse
	if err := c.post(ctx, "/tokenized/checkout/execute", payload, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// QueryPayment is a side-effect-free read used to resolve ambiguity when
// an execute call fails after submission.
func (c *bkashClientImpl) QueryPayment(ctx context.Context, paymentID string) (*model.BkashQueryResponse, error) {
	payload := &model.BkashExecuteRequest{PaymentID: paymentID}

	var result model.BkashQueryResponse
	if err := c.post(ctx, "/tokenized/checkout/payment/status", payload, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *bkashClientImpl) RefundTransaction(ctx context.Context, paymentID, trxID string, amount int64, sku, reason string) (*model.BkashRefundResponse, error) {
	payload := &model.BkashRefundRequest{
		PaymentID:    paymentID,
		TrxID:        trxID,
		RefundAmount: amountString(amount),
		SKU:          sku,
		Reason:       reason,
	}

	var result model.BkashRefundResponse
	if err := c.post(ctx, "/tokenized/checkout/payment/refund", payload, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// post performs one authenticated provider call. No retries here; the
// retry/fallback policy belongs to the checkout orchestration.
func (c *bkashClientImpl) post(ctx context.Context, path string, payload, result interface{}) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return fmt.Errorf("get bkash token: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token)
	req.Header.Set("X-APP-Key", c.appKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("bkash call rejected",
			zap.String("path", path),
			zap.Int("httpStatus", resp.StatusCode),
			zap.ByteString("body", raw),
		)
		return &apperr.GatewayError{
			Op:         path,
			StatusCode: fmt.Sprintf("%d", resp.StatusCode),
			Body:       string(raw),
		}
	}

	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decode bkash response: %w", err)
	}

	return nil
}

// amountString renders an integer amount the way bKash expects: a string
// with exactly two decimal places.
func amountString(amount int64) string {
	return decimal.NewFromInt(amount).StringFixed(2)
}
