// Package response renders the §6 JSON envelopes: {data, message?} for
// success and cursor pages with {next_cursor, has_more} tacked on.
package response

import (
	"github.com/gin-gonic/gin"
)

// OK writes {data} with the given status code.
func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

// OKWithMessage writes {data, message}.
func OKWithMessage(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, gin.H{"data": data, "message": message})
}

// Page writes a cursor-paginated {data, next_cursor, has_more} response.
func Page(c *gin.Context, status int, data interface{}, nextCursor string, hasMore bool) {
	c.JSON(status, gin.H{"data": data, "next_cursor": nextCursor, "has_more": hasMore})
}

// NoContent writes an empty 204, used for successful soft-deletes (§6).
func NoContent(c *gin.Context) {
	c.Status(204)
}
