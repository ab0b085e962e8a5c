package utils

import "github.com/gin-gonic/gin"

func CurrentRiderID(c *gin.Context) string {
	return c.GetString("riderId")
}

func CurrentRole(c *gin.Context) string {
	return c.GetString("role")
}
