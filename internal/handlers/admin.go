package handlers

import (
	"github.com/gin-gonic/gin"

	"koomia/api/internal/middleware"
	"koomia/api/internal/models"
	"koomia/api/internal/response"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.users.ListUsers(c.Request.Context(), q.paging())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page, "")
}

func (h HandlerSet) AdminGetUser(c *gin.Context) {
	account, err := h.users.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, account.Info(), "")
}

func (h HandlerSet) AdminBlockUser(c *gin.Context, p middleware.Principal) {
	h.setBlocked(c, p, true)
}

func (h HandlerSet) AdminUnblockUser(c *gin.Context, p middleware.Principal) {
	h.setBlocked(c, p, false)
}

func (h HandlerSet) setBlocked(c *gin.Context, p middleware.Principal, blocked bool) {
	account, err := h.users.SetBlocked(c.Request.Context(), p.Account, c.Param("userId"), blocked)
	if err != nil {
		response.Error(c, err)
		return
	}
	message := "User unblocked."
	if blocked {
		message = "User blocked."
	}
	response.OK(c, account.Info(), message)
}

type orderListQuery struct {
	pageQuery
	Status string `form:"status" binding:"omitempty,oneof=pending paid shipped delivered cancelled"`
}

func (h HandlerSet) AdminListOrders(c *gin.Context) {
	var q orderListQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.commerce.AllOrders(c.Request.Context(), models.OrderStatus(q.Status), q.paging())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page, "")
}

type orderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid shipped delivered cancelled"`
}

func (h HandlerSet) AdminSetOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.commerce.SetOrderStatus(c.Request.Context(), c.Param("orderId"), models.OrderStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, order, "Order status updated.")
}
