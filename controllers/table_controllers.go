package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order-app/services"
	"github.com/yeremiapane/table-order-app/utils"
)

type TableController struct {
	Registry *services.TableRegistry
	Engine   *services.OrderEngine
}

func NewTableController(registry *services.TableRegistry, engine *services.OrderEngine) *TableController {
	return &TableController{Registry: registry, Engine: engine}
}

type tableRequest struct {
	TableNumber string `json:"table_number" binding:"required"`
}

// CreateTable -> menambahkan meja baru
func (tc *TableController) CreateTable(c *gin.Context) {
	var req tableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Registry.Create(c.Request.Context(), req.TableNumber)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> menampilkan seluruh meja
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Registry.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTableByID(c *gin.Context) {
	table, err := tc.Registry.Get(c.Request.Context(), c.Param("table_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTable -> ganti nomor meja; status kunci tidak bisa diubah dari sini
func (tc *TableController) UpdateTable(c *gin.Context) {
	var req tableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Registry.Rename(c.Request.Context(), c.Param("table_id"), req.TableNumber)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated successfully", table)
}

// DeleteTable -> hapus meja beserta order-nya
func (tc *TableController) DeleteTable(c *gin.Context) {
	if err := tc.Registry.Delete(c.Request.Context(), c.Param("table_id")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted successfully", nil)
}

// ReconcileTables -> POST /admin/tables/reconcile
func (tc *TableController) ReconcileTables(c *gin.Context) {
	report, err := tc.Engine.Reconcile(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table locks reconciled", report)
}
