package service

import "github.com/campus-tuckshop/tuckshop-service/internal/models"

// ValidateAddItemRequest validates the admin item-entry payload.
func ValidateAddItemRequest(req *models.AddItemRequest) error {
	if req.Name == "" {
		return NewValidationError("name", "item name is required")
	}
	if req.Price.Sign() <= 0 {
		return NewValidationError("price", "price must be positive")
	}
	if req.CostPrice.Sign() < 0 {
		return NewValidationError("cost_price", "cost price cannot be negative")
	}
	if req.Stock < 0 {
		return NewValidationError("stock", "stock cannot be negative")
	}
	if !req.Category.Valid() {
		return NewValidationError("category", "unknown category")
	}
	return nil
}

// ValidateCartAddRequest validates a cart add mutation.
func ValidateCartAddRequest(req *models.CartAddRequest) error {
	if req.ItemID == "" {
		return NewValidationError("item_id", "item ID is required")
	}
	if req.Quantity <= 0 {
		return NewValidationError("quantity", "quantity must be positive")
	}
	return nil
}

// ValidateSignUpRequest validates a sign-up payload before it reaches the
// identity oracle.
func ValidateSignUpRequest(req *models.SignUpRequest) error {
	if req.Email == "" {
		return NewValidationError("email", "email is required")
	}
	if req.Password == "" {
		return NewValidationError("password", "password is required")
	}
	if req.Name == "" {
		return NewValidationError("name", "display name is required")
	}
	return nil
}
