package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/warehouse_backend/models"
	"github.com/mmdatafocus/warehouse_backend/utils"
)

// ticketOps collects the family-specific model calls behind one shape so the
// three route groups can share handler bodies. Every op returns its payload
// as interface{} for the JSON response.
type ticketOps struct {
	family     models.TicketFamily
	bulkCreate func(c *gin.Context, input *models.BulkCreateTicketInput) (interface{}, error)
	update     func(c *gin.Context, ticketId, detailId int, input *models.UpdateDetailStatusInput) (interface{}, error)
	cancel     func(c *gin.Context, ticketId int, input *models.CancelTicketInput) (interface{}, error)
	cancelDet  func(c *gin.Context, ticketId, detailId int, input *models.CancelTicketInput) (interface{}, error)
	get        func(c *gin.Context, ticketId int) (interface{}, error)
	list       func(c *gin.Context) (interface{}, error)
	remove     func(c *gin.Context, ticketId int) error
}

func RegisterTicketRoutes(r *gin.Engine) {
	registerTicketGroup(r.Group("/production-tickets"), ticketOps{
		family: models.TicketFamilyProduction,
		bulkCreate: func(c *gin.Context, input *models.BulkCreateTicketInput) (interface{}, error) {
			return models.BulkCreateProductionTickets(c.Request.Context(), input)
		},
		update: func(c *gin.Context, ticketId, detailId int, input *models.UpdateDetailStatusInput) (interface{}, error) {
			return models.UpdateProductionDetailStatus(c.Request.Context(), ticketId, detailId, input)
		},
		cancel: func(c *gin.Context, ticketId int, input *models.CancelTicketInput) (interface{}, error) {
			return models.CancelProductionTicket(c.Request.Context(), ticketId, input)
		},
		cancelDet: func(c *gin.Context, ticketId, detailId int, input *models.CancelTicketInput) (interface{}, error) {
			return models.CancelProductionDetail(c.Request.Context(), ticketId, detailId, input)
		},
		get: func(c *gin.Context, ticketId int) (interface{}, error) {
			return models.GetProductionTicket(c.Request.Context(), ticketId)
		},
		list: func(c *gin.Context) (interface{}, error) {
			return models.GetProductionTickets(c.Request.Context())
		},
		remove: func(c *gin.Context, ticketId int) error {
			return models.DeleteProductionTicket(c.Request.Context(), ticketId)
		},
	})

	registerTicketGroup(r.Group("/purchasing-tickets"), ticketOps{
		family: models.TicketFamilyPurchasing,
		bulkCreate: func(c *gin.Context, input *models.BulkCreateTicketInput) (interface{}, error) {
			return models.BulkCreatePurchasingTickets(c.Request.Context(), input)
		},
		update: func(c *gin.Context, ticketId, detailId int, input *models.UpdateDetailStatusInput) (interface{}, error) {
			return models.UpdatePurchasingDetailStatus(c.Request.Context(), ticketId, detailId, input)
		},
		cancel: func(c *gin.Context, ticketId int, input *models.CancelTicketInput) (interface{}, error) {
			return models.CancelPurchasingTicket(c.Request.Context(), ticketId, input)
		},
		cancelDet: func(c *gin.Context, ticketId, detailId int, input *models.CancelTicketInput) (interface{}, error) {
			return models.CancelPurchasingDetail(c.Request.Context(), ticketId, detailId, input)
		},
		get: func(c *gin.Context, ticketId int) (interface{}, error) {
			return models.GetPurchasingTicket(c.Request.Context(), ticketId)
		},
		list: func(c *gin.Context) (interface{}, error) {
			return models.GetPurchasingTickets(c.Request.Context())
		},
		remove: func(c *gin.Context, ticketId int) error {
			return models.DeletePurchasingTicket(c.Request.Context(), ticketId)
		},
	})

	registerTicketGroup(r.Group("/sale-orders"), ticketOps{
		family: models.TicketFamilySale,
		bulkCreate: func(c *gin.Context, input *models.BulkCreateTicketInput) (interface{}, error) {
			return models.BulkCreateSaleOrders(c.Request.Context(), input)
		},
		update: func(c *gin.Context, ticketId, detailId int, input *models.UpdateDetailStatusInput) (interface{}, error) {
			return models.UpdateSaleOrderDetailStatus(c.Request.Context(), ticketId, detailId, input)
		},
		cancel: func(c *gin.Context, ticketId int, input *models.CancelTicketInput) (interface{}, error) {
			return models.CancelSaleOrder(c.Request.Context(), ticketId, input)
		},
		cancelDet: func(c *gin.Context, ticketId, detailId int, input *models.CancelTicketInput) (interface{}, error) {
			return models.CancelSaleOrderDetail(c.Request.Context(), ticketId, detailId, input)
		},
		get: func(c *gin.Context, ticketId int) (interface{}, error) {
			return models.GetSaleOrder(c.Request.Context(), ticketId)
		},
		list: func(c *gin.Context) (interface{}, error) {
			return models.GetSaleOrders(c.Request.Context())
		},
		remove: func(c *gin.Context, ticketId int) error {
			return models.DeleteSaleOrder(c.Request.Context(), ticketId)
		},
	})
}

func registerTicketGroup(group *gin.RouterGroup, ops ticketOps) {
	group.POST("/bulk-create", func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		var input models.BulkCreateTicketInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		result, err := ops.bulkCreate(c, &input)
		if err != nil {
			respondError(c, "handlers", "BulkCreate", err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	group.GET("", func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		result, err := ops.list(c)
		if err != nil {
			respondError(c, "handlers", "ListTickets", err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	group.GET("/:id", func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		ticketId, ok := ticketIdParam(c, "id")
		if !ok {
			return
		}
		result, err := ops.get(c, ticketId)
		if err != nil {
			respondError(c, "handlers", "GetTicket", err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	group.GET("/:id/status-logs", func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		ticketId, ok := ticketIdParam(c, "id")
		if !ok {
			return
		}
		logs, err := models.GetTicketStatusLogs(c.Request.Context(), ops.family, ticketId)
		if err != nil {
			respondError(c, "handlers", "GetTicketStatusLogs", err)
			return
		}
		c.JSON(http.StatusOK, logs)
	})

	group.PUT("/:id/details/:detailId/status", func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		ticketId, ok := ticketIdParam(c, "id")
		if !ok {
			return
		}
		detailId, ok := ticketIdParam(c, "detailId")
		if !ok {
			return
		}
		var input models.UpdateDetailStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		result, err := ops.update(c, ticketId, detailId, &input)
		if err != nil {
			respondError(c, "handlers", "UpdateDetailStatus", err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	group.PUT("/:id/cancel", func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		ticketId, ok := ticketIdParam(c, "id")
		if !ok {
			return
		}
		var input models.CancelTicketInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		result, err := ops.cancel(c, ticketId, &input)
		if err != nil {
			respondError(c, "handlers", "CancelTicket", err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	group.PUT("/:id/details/:detailId/cancel", func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		ticketId, ok := ticketIdParam(c, "id")
		if !ok {
			return
		}
		detailId, ok := ticketIdParam(c, "detailId")
		if !ok {
			return
		}
		var input models.CancelTicketInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBindError(c, err)
			return
		}
		result, err := ops.cancelDet(c, ticketId, detailId, &input)
		if err != nil {
			respondError(c, "handlers", "CancelDetail", err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	group.DELETE("/:id", func(c *gin.Context) {
		if !requireBusiness(c) {
			return
		}
		ticketId, ok := ticketIdParam(c, "id")
		if !ok {
			return
		}
		if err := ops.remove(c, ticketId); err != nil {
			respondError(c, "handlers", "DeleteTicket", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true})
	})
}

func ticketIdParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondError(c, "handlers", "ticketIdParam",
			utils.NewCodedError(utils.ErrCodeInvalidRequest, name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}
