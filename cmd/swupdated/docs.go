package main

// General API documentation for swaggo. Run `swag init -g cmd/swupdated/docs.go
// -o internal/httpapi/apidocs` to regenerate the swagger docs.
//
// @title           swupdated API
// @version         1.0
// @description     HTTP API for the worker update coordinator: status, activation and update checks.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
