package models

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/billsync/billsync_backend/utils"
)

type Customer struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:120;not null;uniqueIndex" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Address   string    `gorm:"type:text" json:"address"`
	Company   string    `gorm:"size:100" json:"company"`
	Gstin     string    `gorm:"size:20" json:"gstin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NewCustomer struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Company string `json:"company"`
	Gstin   string `json:"gstin"`
}

type UpdateCustomer struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Company *string `json:"company"`
	Gstin   *string `json:"gstin"`
}

// CustomerProvisioning reports what happened to the portal login that is
// auto-created alongside a customer. TempPassword is only populated when a
// fresh login was created; it is never stored in clear anywhere.
type CustomerProvisioning struct {
	LoginCreated bool
	TempPassword string
}

func (input *NewCustomer) validate(ctx context.Context, db *gorm.DB) error {
	if !utils.IsValidEmail(input.Email) {
		return utils.Invalid("invalid email address")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return utils.Invalid("invalid phone number")
		}
	}
	if err := utils.ValidateUnique[Customer](ctx, db, "email", strings.ToLower(input.Email), 0); err != nil {
		return err
	}
	return nil
}

// CreateCustomer creates the customer and, when no user account exists for
// the same email, provisions a login with a random 6-digit temporary
// password in the same transaction. The caller mails the password after
// commit; a mail failure must never undo the customer row.
func CreateCustomer(ctx context.Context, db *gorm.DB, input NewCustomer) (*Customer, *CustomerProvisioning, error) {
	if err := input.validate(ctx, db); err != nil {
		return nil, nil, err
	}

	email := strings.ToLower(input.Email)
	customer := Customer{
		Name:    input.Name,
		Email:   email,
		Phone:   input.Phone,
		Address: input.Address,
		Company: input.Company,
		Gstin:   input.Gstin,
	}
	provisioning := CustomerProvisioning{}

	tx := db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() {
		_ = tx.Rollback().Error
	}()

	if err := tx.Create(&customer).Error; err != nil {
		return nil, nil, err
	}

	existing, err := utils.ResourceCountWhere[User](ctx, tx, "email = ?", email)
	if err != nil {
		return nil, nil, err
	}
	if existing == 0 {
		tempPassword, err := utils.RandomDigits(6)
		if err != nil {
			return nil, nil, err
		}
		hash, err := utils.HashPassword(tempPassword)
		if err != nil {
			return nil, nil, err
		}
		user := User{
			Email:        email,
			PasswordHash: string(hash),
			Role:         RoleUser,
		}
		if err := tx.Create(&user).Error; err != nil {
			return nil, nil, err
		}
		provisioning.LoginCreated = true
		provisioning.TempPassword = tempPassword
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, err
	}
	return &customer, &provisioning, nil
}

func (input *UpdateCustomer) validate(ctx context.Context, db *gorm.DB, id int) error {
	if input.Email != nil {
		if !utils.IsValidEmail(*input.Email) {
			return utils.Invalid("invalid email address")
		}
		if err := utils.ValidateUnique[Customer](ctx, db, "email", strings.ToLower(*input.Email), id); err != nil {
			return err
		}
	}
	if input.Phone != nil && *input.Phone != "" {
		if err := utils.ValidatePhoneNumber(*input.Phone, utils.CountryCode); err != nil {
			return utils.Invalid("invalid phone number")
		}
	}
	return nil
}

func UpdateCustomerById(ctx context.Context, db *gorm.DB, id int, input UpdateCustomer) (*Customer, error) {
	customer, err := utils.FetchModel[Customer](ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, db, id); err != nil {
		return nil, err
	}

	if input.Name != nil {
		customer.Name = *input.Name
	}
	if input.Email != nil {
		customer.Email = strings.ToLower(*input.Email)
	}
	if input.Phone != nil {
		customer.Phone = *input.Phone
	}
	if input.Address != nil {
		customer.Address = *input.Address
	}
	if input.Company != nil {
		customer.Company = *input.Company
	}
	if input.Gstin != nil {
		customer.Gstin = *input.Gstin
	}

	if err := db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomerById refuses to delete a customer with invoices on file.
func DeleteCustomerById(ctx context.Context, db *gorm.DB, id int) error {
	customer, err := utils.FetchModel[Customer](ctx, db, id)
	if err != nil {
		return err
	}

	refs, err := utils.ResourceCountWhere[Invoice](ctx, db, "customer_id = ?", id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return utils.Conflict("customer has existing invoices")
	}

	return db.WithContext(ctx).Delete(customer).Error
}

func GetCustomer(ctx context.Context, db *gorm.DB, id int) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, db, id)
}

func GetCustomers(ctx context.Context, db *gorm.DB) ([]*Customer, error) {
	var customers []*Customer
	if err := db.WithContext(ctx).Order("id ASC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
