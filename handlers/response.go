package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/warehouse_backend/config"
	"github.com/mmdatafocus/warehouse_backend/utils"
	"github.com/sirupsen/logrus"
)

var logger = config.GetLogger()

// httpStatusOf maps the error taxonomy onto HTTP statuses. Validation is a
// plain 400, state conflicts are 409, unknown ids are 404, everything else
// is a 500.
func httpStatusOf(err error) int {
	switch utils.CodeOf(err) {
	case utils.ErrCodeInvalidQuantity, utils.ErrCodeInvalidDate, utils.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case utils.ErrCodeAlreadyExists, utils.ErrCodeInsufficientStock, utils.ErrCodeIllegalTransition:
		return http.StatusConflict
	case utils.ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, moduleName, funcName string, err error) {
	status := httpStatusOf(err)
	if status == http.StatusInternalServerError {
		config.LogError(logger, moduleName, funcName, "request failed", logrus.Fields{
			"path": c.FullPath(),
		}, err)
	}
	c.JSON(status, gin.H{
		"error_code": string(utils.CodeOf(err)),
		"message":    err.Error(),
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error_code": string(utils.ErrCodeInvalidRequest),
		"message":    err.Error(),
	})
}

// requireBusiness rejects requests that carry no tenant credential before
// any model call runs.
func requireBusiness(c *gin.Context) bool {
	businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
	if !ok || businessId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error_code": "UNAUTHORIZED",
			"message":    "business credential is required",
		})
		return false
	}
	return true
}
