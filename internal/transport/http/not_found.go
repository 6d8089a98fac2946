package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func handleNotFound(c *gin.Context) {
	writeError(c, http.StatusNotFound, codeNotFound, "not found")
}

func handleMethodNotAllowed(c *gin.Context) {
	writeError(c, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
}
