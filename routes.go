package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"livestock-backend/models"
	"livestock-backend/services"
	"livestock-backend/storage"
)

// statusFor ordnet Fehler einem HTTP-Status zu. Fehlende Ziegen gelten wie ungültige Eingaben als 400.
func statusFor(err error) int {
	var (
		nf *services.NotFoundError
		ii *services.InvalidInputError
	)
	if errors.As(err, &nf) || errors.As(err, &ii) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, log *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.String("request_id", c.GetString("request_id")), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal database error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// setupGoatRoutes konfiguriert die CRUD-Endpunkte für Ziegen.
func setupGoatRoutes(router *gin.Engine, goats *services.GoatService, log *zap.Logger) {
	rg := router.Group("/goats")

	rg.GET("", func(c *gin.Context) {
		all, err := goats.LoadAll(c.Request.Context())
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, all)
	})

	rg.GET("/:id", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 0)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goat id"})
			return
		}
		goat, err := goats.Load(c.Request.Context(), uint(id))
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, goat)
	})

	rg.POST("", func(c *gin.Context) {
		var goat models.Goat
		if err := c.ShouldBindJSON(&goat); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		id, err := goats.Insert(c.Request.Context(), &goat)
		if err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id, "message": "Goat added"})
	})

	rg.PUT("", func(c *gin.Context) {
		var goat models.Goat
		if err := c.ShouldBindJSON(&goat); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if goat.ID == nil {
			writeError(c, log, &services.InvalidInputError{Msg: "goat id is required for update"})
			return
		}
		if err := goats.Replace(c.Request.Context(), *goat.ID, &goat); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Goat updated"})
	})

	rg.DELETE("", func(c *gin.Context) {
		var req struct {
			ID *uint `json:"id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
		if req.ID == nil {
			writeError(c, log, &services.InvalidInputError{Msg: "goat id is required for delete"})
			return
		}
		if err := goats.Delete(c.Request.Context(), *req.ID); err != nil {
			writeError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Goat deleted"})
	})
}

// setupReferenceRoutes stellt die Kataloge für Impfstoffe und Krankheiten bereit.
func setupReferenceRoutes(router *gin.Engine, goats *services.GoatService, log *zap.Logger) {
	for path, kind := range map[string]services.ReferenceKind{
		"/vaccines": services.KindVaccine,
		"/diseases": services.KindDisease,
	} {
		router.GET(path, func(c *gin.Context) {
			refs, err := goats.ListReferences(c.Request.Context(), kind)
			if err != nil {
				writeError(c, log, err)
				return
			}
			c.JSON(http.StatusOK, refs)
		})
	}
}

func setupHealthRoutes(router *gin.Engine, db *storage.DB, log *zap.Logger) {
	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
