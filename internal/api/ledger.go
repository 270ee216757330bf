package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"FinDesk/internal/ledger"
)

// registerResource mounts list/create/update/delete for one ledger resource.
// GET serves the cached entries with ?cached=true and refreshes otherwise.
func registerResource[E ledger.Entity[E]](g *gin.RouterGroup, res ledger.Resource[E]) {
	g.Use(requireUser)

	g.GET("", func(c *gin.Context) {
		user := c.GetString(userKey)
		if c.Query("cached") == "true" {
			c.JSON(http.StatusOK, nonNil(res.Items(user)))
			return
		}
		items, err := res.List(c.Request.Context(), user)
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(items))
	})

	g.POST("", func(c *gin.Context) {
		var e E
		if err := c.ShouldBindJSON(&e); err != nil {
			abortError(c, http.StatusBadRequest, err)
			return
		}
		created, err := res.Create(c.Request.Context(), c.GetString(userKey), e)
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.JSON(http.StatusCreated, created)
	})

	g.PUT("/:id", func(c *gin.Context) {
		id, ok := entityID(c)
		if !ok {
			return
		}
		var e E
		if err := c.ShouldBindJSON(&e); err != nil {
			abortError(c, http.StatusBadRequest, err)
			return
		}
		updated, err := res.Update(c.Request.Context(), c.GetString(userKey), id, e)
		if err != nil {
			ledgerError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	})

	g.DELETE("/:id", func(c *gin.Context) {
		id, ok := entityID(c)
		if !ok {
			return
		}
		if err := res.Delete(c.Request.Context(), c.GetString(userKey), id); err != nil {
			ledgerError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

const userKey = "user_id"

func requireUser(c *gin.Context) {
	user := c.GetHeader(ledger.UserHeader)
	if user == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ledger.ErrMissingUser.Error()})
		return
	}
	c.Set(userKey, user)
	c.Next()
}

func entityID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

func ledgerError(c *gin.Context, err error) {
	var (
		verr *ledger.ValidationError
		serr *ledger.ServerError
	)
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, ledger.ErrMissingUser):
		abortError(c, http.StatusBadRequest, err)
	case errors.As(err, &serr) && serr.Status == http.StatusNotFound:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error(), "status": serr.Status})
	case errors.As(err, &serr):
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": serr.Status})
	default:
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error(), "status": 0})
	}
}

func nonNil[E any](items []E) []E {
	if items == nil {
		return []E{}
	}
	return items
}
