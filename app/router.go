package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (app *application) routes() http.Handler {
	router := chi.NewRouter()

	router.NotFound(app.notFoundErrorResponse)
	router.MethodNotAllowed(app.methodNotAllowedErrorResponse)

	router.Get("/api/healthcheck", app.healthCheckHandler)

	// user service
	router.Post("/api/users/register", app.registerUserHandler)
	router.Put("/api/users/activate", app.activateUserHandler)
	router.Post("/api/users/login", app.loginUserHandler)
	router.Post("/api/users/logout", app.requireAuthUser(app.logoutUserHandler))

	// blog service
	router.Get("/api/blogs", app.listPublishedBlogsHandler)
	router.Post("/api/blogs", app.requireActivatedUser(app.createBlogHandler))
	router.Get("/api/blogs/my/blogs", app.requireAuthUser(app.listMyBlogsHandler))
	router.Get("/api/blogs/{id}", app.getBlogHandler)
	router.Put("/api/blogs/{id}", app.requireActivatedUser(app.updateBlogHandler))
	router.Delete("/api/blogs/{id}", app.requireActivatedUser(app.deleteBlogHandler))

	return app.recoverPanic(app.logRequest(app.enableCORS(app.authenticate(router))))
}
