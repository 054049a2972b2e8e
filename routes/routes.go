package routes

import (
	"github.com/gofiber/fiber/v2"

	"cleanpro-backend/controllers"
	"cleanpro-backend/middlewares"
)

// Controllers bundles the handler sets wired by Register.
type Controllers struct {
	Auth         *controllers.AuthController
	Customers    *controllers.CustomerController
	Appointments *controllers.AppointmentController
	Invoices     *controllers.InvoiceController
}

// Register wires all HTTP routes.
func Register(app *fiber.App, ctrl Controllers) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", ctrl.Auth.Register)
	api.Post("/login", ctrl.Auth.Login)
	api.Post("/logout", ctrl.Auth.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard for unsafe methods
	protected.Use(middlewares.Idempotency())

	// Customers
	protected.Post("/customer", ctrl.Customers.Create)
	protected.Get("/customers", ctrl.Customers.List)
	protected.Get("/customer/:id", ctrl.Customers.Get)
	protected.Put("/customer/:id", ctrl.Customers.Update)
	protected.Post("/customer/:id/address", ctrl.Customers.AddAddress)

	// Appointments
	protected.Post("/appointment", ctrl.Appointments.Create)
	protected.Get("/appointments", ctrl.Appointments.List)
	protected.Get("/appointments/stats", ctrl.Appointments.Stats)
	protected.Get("/appointment/:id", ctrl.Appointments.Get)
	protected.Put("/appointments/:id/status", ctrl.Appointments.UpdateStatus)
	protected.Put("/appointments/:id/reschedule", ctrl.Appointments.Reschedule)
	protected.Put("/appointments/:id/running-late", ctrl.Appointments.ToggleRunningLate)
	protected.Put("/appointments/:id/team", ctrl.Appointments.UpdateTeam)
	protected.Delete("/appointments/:id", ctrl.Appointments.Delete)

	// Invoices
	protected.Post("/invoice", ctrl.Invoices.Create)
	protected.Get("/invoices", ctrl.Invoices.List)
	protected.Get("/invoices/stats", ctrl.Invoices.Stats)
	protected.Get("/invoice/:id", ctrl.Invoices.Get)
	protected.Post("/invoices/:id/items", ctrl.Invoices.AddLineItem)
	protected.Put("/invoices/:id/items/:index", ctrl.Invoices.UpdateLineItem)
	protected.Delete("/invoices/:id/items/:index", ctrl.Invoices.RemoveLineItem)
	protected.Put("/invoices/:id/send", ctrl.Invoices.Send)
	protected.Put("/invoices/:id/overdue", ctrl.Invoices.MarkOverdue)
	protected.Put("/invoices/:id/pay", ctrl.Invoices.MarkPaid)
	protected.Put("/invoices/:id/credit", ctrl.Invoices.ApplyCredit)
	protected.Put("/invoices/:id/cancel", ctrl.Invoices.Cancel)
	protected.Put("/invoices/:id/archive", ctrl.Invoices.Archive)
	protected.Put("/invoices/:id/zelle/claim", ctrl.Invoices.ClaimZelle)
	protected.Put("/invoices/:id/zelle/verify", ctrl.Invoices.VerifyZelle)
	protected.Put("/invoices/:id/zelle/reject", ctrl.Invoices.RejectZelle)
	protected.Put("/invoices/:id/refund", ctrl.Invoices.RecordRefund)
	protected.Put("/invoices/:id/dispute", ctrl.Invoices.SetDisputed)
}
