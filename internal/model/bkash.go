package model

// Wire types for the bKash tokenized checkout API. Field names are fixed by
// the provider and must round-trip exactly.

type BkashTokenRequest struct {
	AppKey       string `json:"app_key"`
	AppSecret    string `json:"app_secret"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type BkashTokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type BkashCreateRequest struct {
	Mode                  string `json:"mode"`
	PayerReference        string `json:"payerReference"`
	CallbackURL           string `json:"callbackURL"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Intent                string `json:"intent"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
}

type BkashCreateResponse struct {
	PaymentID     string `json:"paymentID"`
	BkashURL      string `json:"bkashURL"`
	StatusCode    string `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
}

type BkashExecuteRequest struct {
	PaymentID string `json:"paymentID"`
}

type BkashExecuteResponse struct {
	StatusCode        string `json:"statusCode"`
	StatusMessage     string `json:"statusMessage"`
	TrxID             string `json:"trxID"`
	TransactionStatus string `json:"transactionStatus"`
}

type BkashQueryResponse struct {
	StatusCode        string `json:"statusCode"`
	TransactionStatus string `json:"transactionStatus"`
	TrxID             string `json:"trxID"`
}

type BkashRefundRequest struct {
	PaymentID    string `json:"paymentId"`
	TrxID        string `json:"trxId"`
	RefundAmount string `json:"refundAmount"`
	SKU          string `json:"sku"`
	Reason       string `json:"reason"`
}

type BkashRefundResponse struct {
	StatusCode              string `json:"statusCode"`
	StatusMessage           string `json:"statusMessage"`
	RefundTransactionStatus string `json:"refundTransactionStatus"`
	RefundTrxID             string `json:"refundTrxID"`
}
