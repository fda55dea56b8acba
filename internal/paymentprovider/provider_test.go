package paymentprovider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-gatekeeper/internal/config"
	"github.com/magabrotheeeer/subscription-gatekeeper/internal/models"
)

func TestNew_SelectsGatewayByKind(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Gateway
		wantErr bool
	}{
		{
			name: "yookassa",
			cfg:  config.Gateway{Kind: "yookassa", ShopID: "shop", SecretKey: "key", Timeout: 5 * time.Second},
		},
		{
			name: "manual",
			cfg:  config.Gateway{Kind: "manual"},
		},
		{
			name:    "unknown kind",
			cfg:     config.Gateway{Kind: "paypal"},
			wantErr: true,
		},
		{
			name:    "empty kind",
			cfg:     config.Gateway{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, gw)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, gw)
		})
	}
}

func TestYooKassa_NormalizeStatus(t *testing.T) {
	client := NewYooKassaClient("shop", "key", time.Second)

	tests := []struct {
		gateway string
		want    models.PaymentStatus
	}{
		{gateway: "succeeded", want: models.PaymentSuccess},
		{gateway: "payment.succeeded", want: models.PaymentSuccess},
		{gateway: "SUCCEEDED", want: models.PaymentSuccess},
		{gateway: "canceled", want: models.PaymentCancelled},
		{gateway: "refunded", want: models.PaymentRefunded},
		{gateway: "refund.succeeded", want: models.PaymentRefunded},
		{gateway: "waiting_for_capture", want: models.PaymentFailed},
		{gateway: "garbage", want: models.PaymentFailed},
	}
	for _, tt := range tests {
		t.Run(tt.gateway, func(t *testing.T) {
			assert.Equal(t, tt.want, client.NormalizeStatus(tt.gateway))
		})
	}
}

func TestManual_NormalizeStatus(t *testing.T) {
	gw := NewManualGateway()

	assert.Equal(t, models.PaymentApproved, gw.NormalizeStatus("approved"))
	assert.Equal(t, models.PaymentRejected, gw.NormalizeStatus("rejected"))
	assert.Equal(t, models.PaymentFailed, gw.NormalizeStatus("something-else"))
}

func TestManual_CreateCharge(t *testing.T) {
	gw := NewManualGateway()

	charge, err := gw.CreateCharge(context.Background(), ChargeRequest{
		PaymentID: "pay-1",
		UserID:    42,
		Amount:    15,
		Currency:  "USD",
		ReturnURL: "https://example.com/manual/pay-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay-1", charge.GatewayID)
	assert.Equal(t, "https://example.com/manual/pay-1", charge.ConfirmationURL)
}
