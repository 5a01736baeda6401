package handlers

import (
	"github.com/gin-gonic/gin"

	"koomia/api/internal/middleware"
	"koomia/api/internal/models"
	"koomia/api/internal/response"
	"koomia/api/internal/service"
)

func (h HandlerSet) Me(c *gin.Context, p middleware.Principal) {
	response.OK(c, p.Account.Info(), "")
}

type updateMeRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=15"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1,max=15"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Mobile    *string `json:"mobile" binding:"omitempty,mobile"`
}

func (h HandlerSet) UpdateMe(c *gin.Context, p middleware.Principal) {
	var req updateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.users.UpdateProfile(c.Request.Context(), p.Account, service.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Mobile:    req.Mobile,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, account.Info(), "Profile updated.")
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,password"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

func (h HandlerSet) ChangePassword(c *gin.Context, p middleware.Principal) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), p.Account, req.OldPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil, "Password changed.")
}

func (h HandlerSet) SetAvatar(c *gin.Context, p middleware.Principal) {
	uploads, closeAll, err := formUploads(c, "avatar", 1)
	defer closeAll()
	if err != nil {
		response.Error(c, err)
		return
	}

	account, err := h.users.SetAvatar(c.Request.Context(), p.Account, uploads[0])
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, account.Info(), "Avatar updated.")
}

func (h HandlerSet) RemoveAvatar(c *gin.Context, p middleware.Principal) {
	account, err := h.users.RemoveAvatar(c.Request.Context(), p.Account)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, account.Info(), "Avatar removed.")
}

func (h HandlerSet) Wishlist(c *gin.Context, p middleware.Principal) {
	products, err := h.commerce.Wishlist(c.Request.Context(), p.Account.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, products, "")
}

type addressRequest struct {
	FirstName       string `json:"firstName" binding:"required,max=30"`
	LastName        string `json:"lastName" binding:"required,max=30"`
	PrimaryMobile   string `json:"primaryMobile" binding:"required,mobile"`
	SecondaryMobile string `json:"secondaryMobile" binding:"omitempty,mobile"`
	Address         string `json:"address" binding:"required,max=200"`
	MoreInfo        string `json:"moreInfo" binding:"max=200"`
	Region          string `json:"region" binding:"required,max=50"`
	City            string `json:"city" binding:"required,max=50"`
	IsDefault       bool   `json:"isDefault"`
}

func (r addressRequest) model() models.Address {
	return models.Address{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		PrimaryMobile:   r.PrimaryMobile,
		SecondaryMobile: r.SecondaryMobile,
		Address:         r.Address,
		MoreInfo:        r.MoreInfo,
		Region:          r.Region,
		City:            r.City,
		IsDefault:       r.IsDefault,
	}
}

func (h HandlerSet) Addresses(c *gin.Context, p middleware.Principal) {
	addresses, err := h.commerce.Addresses(c.Request.Context(), p.Account.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, addresses, "")
}

func (h HandlerSet) CreateAddress(c *gin.Context, p middleware.Principal) {
	var req addressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.commerce.CreateAddress(c.Request.Context(), p.Account.ID, req.model())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, address, "Address added.")
}

func (h HandlerSet) UpdateAddress(c *gin.Context, p middleware.Principal) {
	var req addressRequest
	if !bindJSON(c, &req) {
		return
	}

	address, err := h.commerce.UpdateAddress(c.Request.Context(), p.Account.ID, c.Param("addressId"), req.model())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, address, "Address updated.")
}

func (h HandlerSet) DeleteAddress(c *gin.Context, p middleware.Principal) {
	if err := h.commerce.DeleteAddress(c.Request.Context(), p.Account.ID, c.Param("addressId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c, "Address deleted.")
}

func (h HandlerSet) Cart(c *gin.Context, p middleware.Principal) {
	cart, err := h.commerce.Cart(c.Request.Context(), p.Account.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cart, "")
}

type cartItemRequest struct {
	ProductID string `json:"productId" binding:"required,entityid"`
	VariantID string `json:"variantId" binding:"required,entityid"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=100"`
}

func (h HandlerSet) SetCartItem(c *gin.Context, p middleware.Principal) {
	var req cartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	cart, err := h.commerce.SetCartItem(c.Request.Context(), p.Account.ID, models.CartItem{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cart, "Cart updated.")
}

func (h HandlerSet) RemoveCartItem(c *gin.Context, p middleware.Principal) {
	cart, err := h.commerce.RemoveCartItem(c.Request.Context(), p.Account.ID, c.Param("variantId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, cart, "Item removed.")
}

func (h HandlerSet) ClearCart(c *gin.Context, p middleware.Principal) {
	if _, err := h.commerce.ClearCart(c.Request.Context(), p.Account.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c, "Cart cleared.")
}

type checkoutRequest struct {
	AddressID string `json:"addressId" binding:"required,entityid"`
}

func (h HandlerSet) Checkout(c *gin.Context, p middleware.Principal) {
	var req checkoutRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.commerce.Checkout(c.Request.Context(), p.Account, req.AddressID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, order, "Order placed.")
}

func (h HandlerSet) Orders(c *gin.Context, p middleware.Principal) {
	orders, err := h.commerce.Orders(c.Request.Context(), p.Account.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, orders, "")
}

func (h HandlerSet) Order(c *gin.Context, p middleware.Principal) {
	order, err := h.commerce.Order(c.Request.Context(), p.Account.ID, c.Param("orderId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order, "")
}

func (h HandlerSet) VerifyOrder(c *gin.Context, p middleware.Principal) {
	order, err := h.commerce.VerifyOrder(c.Request.Context(), p.Account.ID, c.Param("orderId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order, "Payment confirmed.")
}
