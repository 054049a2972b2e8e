package controllers

import (
	"github.com/gofiber/fiber/v2"

	"cleanpro-backend/middlewares"
	"cleanpro-backend/services"
	"cleanpro-backend/utils"
)

type AppointmentController struct {
	svc *services.AppointmentService
}

func NewAppointmentController(svc *services.AppointmentService) *AppointmentController {
	return &AppointmentController{svc: svc}
}

type createAppointmentDTO struct {
	CustomerID   string  `json:"customer_id" validate:"required"`
	AddressID    *string `json:"address_id"`
	ServiceType  string  `json:"service_type" validate:"required"`
	Date         string  `json:"date" validate:"required"`
	StartTime    string  `json:"start_time" validate:"required"`
	EndTime      string  `json:"end_time" validate:"required"`
	Instructions string  `json:"special_instructions"`
}

func (ac *AppointmentController) Create(c *fiber.Ctx) error {
	var dto createAppointmentDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	appt, err := ac.svc.Create(c.Context(), services.CreateAppointmentParams{
		CustomerID:   dto.CustomerID,
		AddressID:    dto.AddressID,
		ServiceType:  dto.ServiceType,
		Date:         dto.Date,
		Start:        dto.StartTime,
		End:          dto.EndTime,
		Instructions: dto.Instructions,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(appt)
}

func (ac *AppointmentController) Get(c *fiber.Ctx) error {
	appt, err := ac.svc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(appt)
}

type updateStatusDTO struct {
	Status string `json:"status" validate:"required"`
}

func (ac *AppointmentController) UpdateStatus(c *fiber.Ctx) error {
	var dto updateStatusDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	appt, err := ac.svc.UpdateStatus(c.Context(), c.Params("id"), dto.Status)
	if err != nil {
		return err
	}
	return c.JSON(appt)
}

type rescheduleDTO struct {
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

func (ac *AppointmentController) Reschedule(c *fiber.Ctx) error {
	var dto rescheduleDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)
	appt, err := ac.svc.Reschedule(c.Context(), c.Params("id"), dto.Date, dto.StartTime, dto.EndTime)
	if err != nil {
		return err
	}
	return c.JSON(appt)
}

func (ac *AppointmentController) ToggleRunningLate(c *fiber.Ctx) error {
	appt, err := ac.svc.ToggleRunningLate(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(appt)
}

type updateTeamDTO struct {
	TeamMembers []string `json:"team_members"`
}

func (ac *AppointmentController) UpdateTeam(c *fiber.Ctx) error {
	var dto updateTeamDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	appt, err := ac.svc.UpdateTeam(c.Context(), c.Params("id"), dto.TeamMembers)
	if err != nil {
		return err
	}
	return c.JSON(appt)
}

func (ac *AppointmentController) Delete(c *fiber.Ctx) error {
	if err := ac.svc.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "appointment deleted"})
}

func (ac *AppointmentController) List(c *fiber.Ctx) error {
	appointments, err := ac.svc.Filter(c.Context(), services.AppointmentQuery{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Date:   c.Query("date"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

func (ac *AppointmentController) Stats(c *fiber.Ctx) error {
	stats, err := ac.svc.Stats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
