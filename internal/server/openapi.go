package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Scoreboard API"
	r.Spec.Info.Version = "1.0.0"
	r.Spec.Info.WithDescription("Live play-by-play scoreboard backend.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/stats")
	getStats.SetSummary("Registry statistics")
	getStats.SetDescription("Live subscriber counts and dropped-delivery totals.")
	getStats.AddRespStructure(StatsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getStats)

	// GET /sports
	getSports, _ := r.NewOperationContext(http.MethodGet, "/sports")
	getSports.SetSummary("List sports")
	getSports.AddRespStructure([]Sport{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getSports)

	// POST /sports
	postSport, _ := r.NewOperationContext(http.MethodPost, "/sports")
	postSport.SetSummary("Create sport")
	postSport.SetDescription("Creates a sport. Name and slug must both be unique.")
	postSport.AddReqStructure(CreateSportRequest{})
	postSport.AddRespStructure(Sport{}, openapi.WithHTTPStatus(http.StatusCreated))
	postSport.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postSport)

	// GET /sports/{sportID}/games
	getGames, _ := r.NewOperationContext(http.MethodGet, "/sports/{sportID}/games")
	getGames.SetSummary("List games for a sport")
	getGames.AddRespStructure([]Game{}, openapi.WithHTTPStatus(http.StatusOK))
	getGames.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGames)

	// POST /games
	postGame, _ := r.NewOperationContext(http.MethodPost, "/games")
	postGame.SetSummary("Create game")
	postGame.SetDescription("Creates a game under an existing sport. New games start Scheduled.")
	postGame.AddReqStructure(CreateGameRequest{})
	postGame.AddRespStructure(Game{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postGame)

	// GET /games/{gameID}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/games/{gameID}")
	getGame.SetSummary("Get game state")
	getGame.SetDescription("Returns the game and its full play-by-play history, oldest first.")
	getGame.AddRespStructure(GameStateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// POST /games/{gameID}/events
	postEvent, _ := r.NewOperationContext(http.MethodPost, "/games/{gameID}/events")
	postEvent.SetSummary("Create event")
	postEvent.SetDescription("Appends a play-by-play event and broadcasts it to the game's subscribers.")
	postEvent.AddReqStructure(CreateEventRequest{})
	postEvent.AddRespStructure(Event{}, openapi.WithHTTPStatus(http.StatusCreated))
	postEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postEvent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postEvent)

	// GET /ws/games/{gameID}
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws/games/{gameID}")
	getWS.SetSummary("Subscribe to game events")
	getWS.SetDescription("Upgrades to a WebSocket that streams the game's new events as they are created. Unknown games and disallowed origins are closed with code 1008.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
