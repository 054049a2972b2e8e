package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"cleanpro-backend/middlewares"
	"cleanpro-backend/services"
	"cleanpro-backend/utils"
)

type InvoiceController struct {
	svc *services.InvoiceService
}

func NewInvoiceController(svc *services.InvoiceService) *InvoiceController {
	return &InvoiceController{svc: svc}
}

type createInvoiceDTO struct {
	CustomerID string                   `json:"customer_id" validate:"required"`
	Items      []services.LineItemInput `json:"line_items" validate:"required,min=1,dive"`
	TaxRate    float64                  `json:"tax_rate" validate:"gte=0"`
	DueDate    *string                  `json:"due_date"`
	Notes      string                   `json:"notes"`
}

func (ic *InvoiceController) Create(c *fiber.Ctx) error {
	var dto createInvoiceDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	inv, err := ic.svc.Create(c.Context(), services.CreateInvoiceParams{
		CustomerID: dto.CustomerID,
		Items:      dto.Items,
		TaxRate:    dto.TaxRate,
		DueDate:    dto.DueDate,
		Notes:      dto.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

func (ic *InvoiceController) Get(c *fiber.Ctx) error {
	inv, err := ic.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (ic *InvoiceController) AddLineItem(c *fiber.Ctx) error {
	var item services.LineItemInput
	if err := middlewares.BindAndValidate(c, &item); err != nil {
		return err
	}
	inv, err := ic.svc.AddLineItem(c.Context(), c.Params("id"), item)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func lineItemIndex(c *fiber.Ctx) (int, error) {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid line item index")
	}
	return index, nil
}

func (ic *InvoiceController) UpdateLineItem(c *fiber.Ctx) error {
	index, err := lineItemIndex(c)
	if err != nil {
		return err
	}
	var item services.LineItemInput
	if err := middlewares.BindAndValidate(c, &item); err != nil {
		return err
	}
	inv, err := ic.svc.UpdateLineItem(c.Context(), c.Params("id"), index, item)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (ic *InvoiceController) RemoveLineItem(c *fiber.Ctx) error {
	index, err := lineItemIndex(c)
	if err != nil {
		return err
	}
	inv, err := ic.svc.RemoveLineItem(c.Context(), c.Params("id"), index)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (ic *InvoiceController) Send(c *fiber.Ctx) error {
	inv, err := ic.svc.Send(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (ic *InvoiceController) MarkOverdue(c *fiber.Ctx) error {
	inv, err := ic.svc.MarkOverdue(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

type markPaidDTO struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

func (ic *InvoiceController) MarkPaid(c *fiber.Ctx) error {
	var dto markPaidDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	inv, err := ic.svc.MarkPaid(c.Context(), c.Params("id"), dto.PaymentMethod)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

type applyCreditDTO struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

func (ic *InvoiceController) ApplyCredit(c *fiber.Ctx) error {
	var dto applyCreditDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	inv, result, err := ic.svc.ApplyCredit(c.Context(), c.Params("id"), dto.Amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"invoice":           inv,
		"is_fully_paid":     result.IsFullyPaid,
		"remaining_balance": result.RemainingBalance,
	})
}

func (ic *InvoiceController) Cancel(c *fiber.Ctx) error {
	inv, err := ic.svc.Cancel(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (ic *InvoiceController) Archive(c *fiber.Ctx) error {
	inv, err := ic.svc.Archive(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (ic *InvoiceController) ClaimZelle(c *fiber.Ctx) error {
	inv, err := ic.svc.ClaimZelle(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (ic *InvoiceController) VerifyZelle(c *fiber.Ctx) error {
	inv, err := ic.svc.VerifyZelle(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (ic *InvoiceController) RejectZelle(c *fiber.Ctx) error {
	inv, err := ic.svc.RejectZelle(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

type refundDTO struct {
	Amount float64 `json:"amount" validate:"gt=0"`
}

func (ic *InvoiceController) RecordRefund(c *fiber.Ctx) error {
	var dto refundDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	inv, err := ic.svc.RecordRefund(c.Context(), c.Params("id"), dto.Amount)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

type disputeDTO struct {
	Disputed *bool `json:"disputed" validate:"required"`
}

func (ic *InvoiceController) SetDisputed(c *fiber.Ctx) error {
	var dto disputeDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	inv, err := ic.svc.SetDisputed(c.Context(), c.Params("id"), *dto.Disputed)
	if err != nil {
		return err
	}
	return c.JSON(inv)
}

func (ic *InvoiceController) List(c *fiber.Ctx) error {
	invoices, err := ic.svc.Filter(c.Context(), services.InvoiceQuery{
		Search: c.Query("search"),
		Status: c.Query("status"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

func (ic *InvoiceController) Stats(c *fiber.Ctx) error {
	stats, err := ic.svc.Stats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
