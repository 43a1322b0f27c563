package main

import (
	"os"

	"socratic-coach/backend/internal/app"
)

// @title           Socratic Coach API
// @version         1.0
// @description     Language model gateway, document extraction and thread persistence for Socratic thinking sessions.
// @host            localhost:8000
// @BasePath        /api
func main() {
	os.Exit(app.Run())
}
