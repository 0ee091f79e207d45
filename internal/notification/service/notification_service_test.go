package service

import (
	"context"
	"errors"
	"testing"

	generalDomain "github.com/JonOng2002/microservices-ecommerce/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	to     string
	amount int64
	status string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) SendOrderConfirmation(_ context.Context, to string, amount int64, status string) error {
	if f.err != nil {
		return f.err
	}

	f.sent = append(f.sent, sentMail{to: to, amount: amount, status: status})

	return nil
}

func TestHandleOrderCreatedSendsConfirmation(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(sender, zap.NewNop())

	err := svc.HandleOrderCreated(context.Background(), &generalDomain.OrderCreatedEvent{
		Email:  "buyer@example.com",
		Amount: 4200,
		Status: "success",
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "buyer@example.com", sender.sent[0].to)
	assert.Equal(t, int64(4200), sender.sent[0].amount)
}

func TestHandleOrderCreatedSkipsWithoutEmail(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(sender, zap.NewNop())

	err := svc.HandleOrderCreated(context.Background(), &generalDomain.OrderCreatedEvent{
		Amount: 4200,
		Status: "success",
	})
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestHandleOrderCreatedPropagatesSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	svc := NewNotificationService(sender, zap.NewNop())

	err := svc.HandleOrderCreated(context.Background(), &generalDomain.OrderCreatedEvent{
		Email: "buyer@example.com",
	})
	assert.Error(t, err)
}
