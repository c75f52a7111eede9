// Package docs provides Swagger documentation for the API.
package docs

// @title Modaliv Backend API
// @version 1.0
// @description Identity, catalog and notification API for the Modaliv fashion store
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@modaliv.local

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
