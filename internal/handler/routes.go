package handler

import (
	"net/http"

	"branchvid/internal/middleware"
)

// RegisterRoutes wires every API route into mux. Routes wrapped with
// RequireUser need an authenticated caller; the others accept anonymous
// viewers and personalize the response when a user is known.
func RegisterRoutes(mux *http.ServeMux, trees *TreeHandler, histories *HistoryHandler, users *UserHandler) {
	auth := middleware.RequireUser

	// Videos
	mux.HandleFunc("POST /api/videos", auth(trees.CreateTree))
	mux.HandleFunc("GET /api/videos", trees.ListPublic)
	mux.HandleFunc("GET /api/videos/favorites", auth(trees.ListFavorites))
	mux.HandleFunc("GET /api/videos/{id}", trees.GetTree)
	mux.HandleFunc("GET /api/videos/{id}/edit", auth(trees.GetTreeForEdit))
	mux.HandleFunc("PATCH /api/videos/{id}", auth(trees.UpdateTree))
	mux.HandleFunc("DELETE /api/videos/{id}", auth(trees.DeleteTree))
	mux.HandleFunc("PATCH /api/videos/{id}/favorite", auth(trees.ToggleFavorite))
	mux.HandleFunc("PATCH /api/videos/{id}/views", trees.IncrementViews)

	// Playback progress
	mux.HandleFunc("GET /api/videos/{id}/history", auth(histories.GetHistory))
	mux.HandleFunc("PUT /api/videos/{id}/history", auth(histories.SaveProgress))
	mux.HandleFunc("GET /api/histories", auth(trees.ListWatched))

	// Accounts and channels
	mux.HandleFunc("GET /api/users/me", auth(users.GetMe))
	mux.HandleFunc("PATCH /api/users/me", auth(users.UpdateMe))
	mux.HandleFunc("DELETE /api/users/me", auth(users.DeleteMe))
	mux.HandleFunc("GET /api/users/me/videos", auth(trees.ListMine))
	mux.HandleFunc("DELETE /api/users/me/videos", auth(trees.DeleteMine))
	mux.HandleFunc("GET /api/channels/{id}", users.GetChannel)
	mux.HandleFunc("GET /api/channels/{id}/videos", trees.ListByChannel)
	mux.HandleFunc("PATCH /api/channels/{id}/subscription", auth(users.ToggleSubscription))
}
