package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/warehouse_backend/models"
	"github.com/mmdatafocus/warehouse_backend/utils"
)

func RegisterVariantRoutes(r *gin.Engine) {
	group := r.Group("/variants")
	group.POST("", createVariantHandler)
	group.GET("", listVariantsHandler)
	group.GET("/:id", getVariantHandler)
	group.PUT("/:id", updateVariantHandler)
}

func createVariantHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	var input models.NewVariant
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	variant, err := models.CreateVariant(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "handlers", "CreateVariant", err)
		return
	}
	c.JSON(http.StatusCreated, variant)
}

func listVariantsHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	var kind *models.LedgerKind
	if raw := c.Query("ledger_kind"); raw != "" {
		parsed, ok := models.ParseLedgerKind(raw)
		if !ok {
			respondError(c, "handlers", "GetVariants",
				utils.NewCodedError(utils.ErrCodeInvalidRequest, "unknown ledger kind "+raw))
			return
		}
		kind = &parsed
	}
	variants, err := models.GetVariants(c.Request.Context(), kind)
	if err != nil {
		respondError(c, "handlers", "GetVariants", err)
		return
	}
	c.JSON(http.StatusOK, variants)
}

func updateVariantHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondError(c, "handlers", "UpdateVariant",
			utils.NewCodedError(utils.ErrCodeInvalidRequest, "variant id must be a positive integer"))
		return
	}
	var input models.UpdateVariantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	variant, err := models.UpdateVariant(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "handlers", "UpdateVariant", err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

func getVariantHandler(c *gin.Context) {
	if !requireBusiness(c) {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondError(c, "handlers", "GetVariant",
			utils.NewCodedError(utils.ErrCodeInvalidRequest, "variant id must be a positive integer"))
		return
	}
	variant, err := models.GetVariant(c.Request.Context(), id)
	if err != nil {
		respondError(c, "handlers", "GetVariant", err)
		return
	}
	c.JSON(http.StatusOK, variant)
}
