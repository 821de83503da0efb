package ws

import "net/http"

func httptestHandler(h *Hub) http.Handler {
	return http.HandlerFunc(h.HandleWS)
}
