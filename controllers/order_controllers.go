package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order-app/reports"
	"github.com/yeremiapane/table-order-app/services"
	"github.com/yeremiapane/table-order-app/utils"
)

type OrderController struct {
	Engine         *services.OrderEngine
	CurrencySymbol string
}

func NewOrderController(engine *services.OrderEngine, currencySymbol string) *OrderController {
	return &OrderController{Engine: engine, CurrencySymbol: currencySymbol}
}

// GetOrderByID -> detail order dengan item dan total
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.Engine.GetOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", services.Summarize(*order))
}

// AddItem -> POST /orders/:order_id/items
func (oc *OrderController) AddItem(c *gin.Context) {
	var req struct {
		MenuItemID string `json:"menu_item_id"`
		Quantity   int    `json:"quantity"`
		NewTicket  bool   `json:"new_ticket"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := oc.Engine.AddItem(c.Request.Context(), services.AddItemInput{
		OrderID:    c.Param("order_id"),
		MenuItemID: req.MenuItemID,
		Quantity:   req.Quantity,
		NewTicket:  req.NewTicket,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Item added", res)
}

// UpdateItem -> PUT /order-items/:item_id, quantity <= 0 menghapus item
func (oc *OrderController) UpdateItem(c *gin.Context) {
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Quantity == nil {
		respondServiceError(c, &services.ValidationError{Field: "quantity", Reason: "is required"})
		return
	}

	item, err := oc.Engine.UpdateItemQuantity(c.Request.Context(), c.Param("item_id"), *req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if item == nil {
		utils.RespondJSON(c, http.StatusOK, "Item removed", nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item updated", item)
}

// RemoveItem -> DELETE /order-items/:item_id
func (oc *OrderController) RemoveItem(c *gin.Context) {
	if err := oc.Engine.RemoveItem(c.Request.Context(), c.Param("item_id")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed", nil)
}

// UpdateOrderStatus -> PUT /admin/orders/:order_id/status
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := oc.Engine.AdvanceStatus(c.Request.Context(), c.Param("order_id"), req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	message := "Order status updated"
	if !res.Changed {
		message = "Order status unchanged"
	}
	utils.RespondJSON(c, http.StatusOK, message, gin.H{
		"order":          services.Summarize(*res.Order),
		"changed":        res.Changed,
		"table_unlocked": res.TableUnlocked,
	})
}

// DeleteOrder -> DELETE /admin/orders/:order_id
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	if err := oc.Engine.DeleteOrder(c.Request.Context(), c.Param("order_id")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order deleted", nil)
}

func searchInputFromQuery(c *gin.Context) (services.SearchInput, error) {
	in := services.SearchInput{
		TableNumber:  c.Query("table_number"),
		MobileNumber: c.Query("mobile_number"),
		OrderCode:    c.Query("order_code"),
		Status:       c.Query("status"),
		StartDate:    c.Query("start_date"),
		EndDate:      c.Query("end_date"),
	}
	var err error
	if v := c.Query("limit"); v != "" {
		if in.Limit, err = strconv.Atoi(v); err != nil {
			return in, &services.ValidationError{Field: "limit", Reason: "must be a number"}
		}
	}
	if v := c.Query("offset"); v != "" {
		if in.Offset, err = strconv.Atoi(v); err != nil {
			return in, &services.ValidationError{Field: "offset", Reason: "must be a number"}
		}
	}
	return in, nil
}

// SearchOrders -> GET /admin/orders
func (oc *OrderController) SearchOrders(c *gin.Context) {
	in, err := searchInputFromQuery(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	res, err := oc.Engine.Search(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", res)
}

// ExportOrdersCSV -> GET /admin/orders/export.csv, filter sama dengan search
// tapi tanpa limit: semua baris yang cocok ikut diekspor
func (oc *OrderController) ExportOrdersCSV(c *gin.Context) {
	in, err := searchInputFromQuery(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	orders, total, err := oc.Engine.SearchAll(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteOrdersCSV(&buf, orders, oc.CurrencySymbol); err != nil {
		respondServiceError(c, err)
		return
	}
	filename := fmt.Sprintf("orders-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// KitchenTicketPDF -> GET /admin/orders/:order_id/ticket.pdf
func (oc *OrderController) KitchenTicketPDF(c *gin.Context) {
	order, err := oc.Engine.GetOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteKitchenTicket(&buf, order, oc.CurrencySymbol); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=ticket-%s.pdf", order.JoinCode))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
