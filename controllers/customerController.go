package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"cleanpro-backend/middlewares"
	"cleanpro-backend/models"
	"cleanpro-backend/utils"
)

// CustomerController manages the customer/address directory. The lifecycle
// engine reads this data; only these back-office endpoints write it.
type CustomerController struct {
	db *gorm.DB
}

func NewCustomerController(db *gorm.DB) *CustomerController {
	return &CustomerController{db: db}
}

type createCustomerDTO struct {
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     string  `json:"phone"`
	Credit    float64 `json:"credit_balance" validate:"gte=0"`
}

func (cc *CustomerController) Create(c *fiber.Ctx) error {
	var dto createCustomerDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	customer := models.Customer{
		FirstName:     dto.FirstName,
		LastName:      dto.LastName,
		Email:         dto.Email,
		Phone:         dto.Phone,
		CreditBalance: dto.Credit,
	}
	if err := cc.db.Create(&customer).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create customer")
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

func (cc *CustomerController) Get(c *fiber.Ctx) error {
	var customer models.Customer
	if err := cc.db.Preload("Addresses").First(&customer, "id = ?", c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "customer not found")
	}
	return c.JSON(customer)
}

func (cc *CustomerController) List(c *fiber.Ctx) error {
	var customers []models.Customer
	if err := cc.db.Preload("Addresses").Order("last_name, first_name").Find(&customers).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"customers": customers,
		"count":     len(customers),
	})
}

type updateCustomerDTO struct {
	FirstName *string  `json:"first_name"`
	LastName  *string  `json:"last_name"`
	Email     *string  `json:"email"`
	Phone     *string  `json:"phone"`
	Credit    *float64 `json:"credit_balance"`
}

func (cc *CustomerController) Update(c *fiber.Ctx) error {
	var dto updateCustomerDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}
	res := cc.db.Model(&models.Customer{}).Where("id = ?", c.Params("id")).Updates(updates)
	if res.Error != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update customer")
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "customer not found")
	}

	var customer models.Customer
	if err := cc.db.Preload("Addresses").First(&customer, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}
	return c.JSON(customer)
}

type createAddressDTO struct {
	Street    string `json:"street" validate:"required"`
	Unit      string `json:"unit"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Zip       string `json:"zip" validate:"required"`
	IsPrimary bool   `json:"is_primary"`
}

func (cc *CustomerController) AddAddress(c *fiber.Ctx) error {
	var dto createAddressDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizeDTO(&dto)

	var customer models.Customer
	if err := cc.db.First(&customer, "id = ?", c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "customer not found")
	}

	address := models.Address{
		CustomerID: customer.Id,
		Street:     dto.Street,
		Unit:       dto.Unit,
		City:       dto.City,
		State:      dto.State,
		Zip:        dto.Zip,
		IsPrimary:  dto.IsPrimary,
	}
	if err := cc.db.Create(&address).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create address")
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}
