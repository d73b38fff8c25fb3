package http

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/sirupsen/logrus"

	"feeds-server/internal/auth"
	"feeds-server/internal/storage"
)

// Handler wires HTTP routes to the GraphQL schema and image storage.
type Handler struct {
	schema    graphql.Schema
	tokens    *auth.TokenService
	images    storage.Service
	imagesDir string
	logger    *logrus.Logger
}

// NewHandler builds the transport handler. imagesDir is the local static-serve
// root; pass "" when images live in object storage instead.
func NewHandler(schema graphql.Schema, tokens *auth.TokenService, images storage.Service, imagesDir string, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		schema:    schema,
		tokens:    tokens,
		images:    images,
		imagesDir: imagesDir,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(h.identityMiddleware())

	router.POST("/graphql", h.graphql)
	router.PUT("/post-image", h.uploadImage)
	if h.imagesDir != "" {
		router.Static("/images", h.imagesDir)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "404!!! Not found!"})
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// identityMiddleware annotates the request context with the caller's identity.
// It never rejects: absent, malformed and expired tokens all leave the request
// anonymous and each operation decides whether to demand authentication.
func (h *Handler) identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		claims, err := h.tokens.Verify(parts[1])
		if err != nil {
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// GraphQLError is a single entry of the response error envelope.
type GraphQLError struct {
	Message string   `json:"message"`
	Status  int      `json:"status"`
	Data    []string `json:"data,omitempty"`
}

func (h *Handler) graphql(c *gin.Context) {
	var req graphqlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        c.Request.Context(),
	})

	resp := gin.H{"data": result.Data}
	if len(result.Errors) > 0 {
		formatted := make([]GraphQLError, 0, len(result.Errors))
		for _, gqlErr := range result.Errors {
			formatted = append(formatted, h.formatError(gqlErr))
		}
		resp["errors"] = formatted
	}

	// Resolver failures stay inside the GraphQL envelope; the HTTP layer
	// answered successfully.
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) formatError(gqlErr gqlerrors.FormattedError) GraphQLError {
	out := GraphQLError{
		Message: gqlErr.Message,
		Status:  http.StatusInternalServerError,
	}

	if ext := gqlErr.Extensions; ext != nil {
		if status, ok := ext["status"].(int); ok {
			out.Status = status
		}
		if data, ok := ext["data"].([]string); ok {
			out.Data = data
		}
	}

	if out.Status == http.StatusInternalServerError {
		h.logger.Errorf("graphql: %s", gqlErr.Message)
	}
	return out
}

func (h *Handler) uploadImage(c *gin.Context) {
	if _, ok := auth.IdentityFromContext(c.Request.Context()); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated!"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "No file provided"})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !allowedImageType(contentType) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Unsupported image type"})
		return
	}

	if oldPath := c.PostForm("oldPath"); oldPath != "" {
		if err := h.images.Remove(c.Request.Context(), oldPath); err != nil {
			h.logger.Warnf("remove old image %s: %v", oldPath, err)
		}
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Errorf("open uploaded image: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read upload"})
		return
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	path, err := h.images.Put(c.Request.Context(), name, contentType, src)
	if err != nil {
		h.logger.Errorf("store uploaded image: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not store upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "File stored",
		"filePath": path,
	})
}

func allowedImageType(contentType string) bool {
	switch contentType {
	case "image/png", "image/jpg", "image/jpeg":
		return true
	}
	return false
}
