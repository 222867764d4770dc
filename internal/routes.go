package internal

import (
	"net/http"

	"festmap/internal/controllers"
	"festmap/internal/providers"
	"festmap/internal/structures"
)

func InitRoutes(apiController *controllers.ApiController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/posts", http.HandlerFunc(apiController.GetPosts))
	routers.Post("/posts", http.HandlerFunc(apiController.PublishPost))
	routers.Get("/hotspots", http.HandlerFunc(apiController.GetHotspots))
	routers.Get("/status", http.HandlerFunc(apiController.GetStatus))
	routers.Get("/places", http.HandlerFunc(apiController.SearchPlaces))
	return routers
}
