package server

import "net/http"

// StatsResponse exposes registry and dispatcher counters: games with live
// subscribers, subscriber counts (total and per game), and subscribers
// dropped after a failed delivery.
type StatsResponse struct {
	Games             int            `json:"games"`
	Subscribers       int            `json:"subscribers"`
	SubscribersByGame map[string]int `json:"subscribers_by_game"`
	DroppedDeliveries int64          `json:"dropped_deliveries"`
}

func handleStats(registry *Registry, dispatcher *Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, subscribers := registry.Stats()
		writeJSON(w, http.StatusOK, StatsResponse{
			Games:             games,
			Subscribers:       subscribers,
			SubscribersByGame: registry.GameCounts(),
			DroppedDeliveries: dispatcher.Dropped(),
		})
	}
}
