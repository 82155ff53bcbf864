package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order-app/services"
	"github.com/yeremiapane/table-order-app/utils"
)

type MenuController struct {
	Catalog *services.MenuCatalog
}

func NewMenuController(catalog *services.MenuCatalog) *MenuController {
	return &MenuController{Catalog: catalog}
}

// GetAvailableMenus -> GET /menu?category=
func (mc *MenuController) GetAvailableMenus(c *gin.Context) {
	items, err := mc.Catalog.ListAvailable(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", items)
}

func (mc *MenuController) GetCategories(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "List of categories", mc.Catalog.Categories())
}

// GetAllMenus -> admin, termasuk yang tidak tersedia
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	items, err := mc.Catalog.ListAll(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", items)
}

func (mc *MenuController) GetMenuByID(c *gin.Context) {
	item, err := mc.Catalog.Get(c.Request.Context(), c.Param("menu_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu detail", item)
}

func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req services.MenuInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	item, err := mc.Catalog.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu created successfully", item)
}

func (mc *MenuController) UpdateMenu(c *gin.Context) {
	var req services.MenuInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	item, err := mc.Catalog.Update(c.Request.Context(), c.Param("menu_id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated successfully", item)
}

// SetAvailability -> PATCH /admin/menu/:menu_id/availability
func (mc *MenuController) SetAvailability(c *gin.Context) {
	var req struct {
		IsAvailable *bool `json:"is_available"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.IsAvailable == nil {
		respondServiceError(c, &services.ValidationError{Field: "is_available", Reason: "is required"})
		return
	}
	item, err := mc.Catalog.SetAvailability(c.Request.Context(), c.Param("menu_id"), *req.IsAvailable)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu availability updated", item)
}

func (mc *MenuController) DeleteMenu(c *gin.Context) {
	if err := mc.Catalog.Delete(c.Request.Context(), c.Param("menu_id")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu deleted successfully", nil)
}
