package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-payment-links/app/factory"
	"github.com/vibast-solutions/ms-go-payment-links/app/mapper"
	"github.com/vibast-solutions/ms-go-payment-links/app/service"
	"github.com/vibast-solutions/ms-go-payment-links/app/types"
)

type PaymentController struct {
	paymentService *service.PaymentLinkService
	logger         logrus.FieldLogger
}

func NewPaymentController(paymentService *service.PaymentLinkService) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		logger:         factory.NewModuleLogger("payment-links-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) CreatePaymentLink(ctx echo.Context) error {
	req, err := types.NewCreatePaymentLinkRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.CreatePaymentLink(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrProviderUnsupported):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrProviderTimeout):
			return c.writeError(ctx, http.StatusGatewayTimeout, "payment provider timed out")
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Create payment link failed")
			return c.writeError(ctx, http.StatusBadGateway, "payment provider request failed")
		}
	}

	return ctx.JSON(http.StatusCreated, mapper.PaymentToCreatedResponse(item))
}

func (c *PaymentController) GetPayment(ctx echo.Context) error {
	req, err := types.NewGetPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.GetPayment(ctx.Request().Context(), req.GetID())
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get payment failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, mapper.PaymentToResponse(item))
}

func (c *PaymentController) GetHistory(ctx echo.Context) error {
	req, err := types.NewHistoryRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.paymentService.GetHistory(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get payment history failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.PaymentHistoryResponse{Payments: mapper.PaymentsToResponse(items)})
}

func (c *PaymentController) GetOrCreatePayer(ctx echo.Context) error {
	req, err := types.NewGetOrCreatePayerRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.paymentService.GetOrCreatePayer(ctx.Request().Context(), req.GetEmail())
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get or create payer failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, mapper.PayerToResponse(item))
}

// HandleProviderEvent acknowledges deliveries the provider must not retry
// (malformed payloads, events for unknown records) with 200 so the provider
// does not redeliver them forever.
func (c *PaymentController) HandleProviderEvent(ctx echo.Context) error {
	req, err := types.NewProviderEventRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	err = c.paymentService.HandleProviderEvent(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventUnauthorized), errors.Is(err, service.ErrProviderUnsupported), errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrEventMalformed):
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Warn("Discarded malformed provider event")
			return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Event discarded"})
		case errors.Is(err, service.ErrPaymentNotFound):
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Warn("Provider event references unknown payment")
			return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Event acknowledged"})
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Handle provider event failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Event processed"})
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
