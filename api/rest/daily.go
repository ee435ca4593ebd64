package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/morinoparty/dailyquest/server/game/daily"
	mw "github.com/morinoparty/dailyquest/server/middleware"
)

// DailyQuestHandler exposes daily quest progress and actions for the
// authenticated player.
type DailyQuestHandler struct {
	svc *daily.Service
}

// NewDailyQuestHandler creates a new DailyQuestHandler.
func NewDailyQuestHandler(svc *daily.Service) *DailyQuestHandler {
	return &DailyQuestHandler{svc: svc}
}

// Me handles GET /daily-quests/me. An informational read: it always
// succeeds, degrading to an empty list on any internal failure.
func (h *DailyQuestHandler) Me(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	quests := h.svc.FetchDailyQuests(c.Request.Context(), playerID)
	c.JSON(http.StatusOK, gin.H{"dailyQuests": quests})
}

// Reroll handles POST /daily-quests/me/reroll.
func (h *DailyQuestHandler) Reroll(c *gin.Context) {
	playerID := mw.GetPlayerID(c)
	result, err := h.svc.Reroll(c.Request.Context(), playerID)
	if err != nil {
		writeActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type questSelectRequest struct {
	Difficulty string `json:"difficulty" binding:"required"`
}

// Select handles POST /daily-quests/me/select.
func (h *DailyQuestHandler) Select(c *gin.Context) {
	var req questSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	playerID := mw.GetPlayerID(c)
	result, err := h.svc.SelectDifficulty(c.Request.Context(), playerID, req.Difficulty)
	if err != nil {
		writeActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// writeActionError maps action failures to the right status: client
// errors (bad difficulty, player offline) are 400, everything else is
// an integration failure surfaced as 500 with its cause.
func writeActionError(c *gin.Context, err error) {
	var diffErr *daily.InvalidDifficultyError
	switch {
	case errors.Is(err, daily.ErrNoLiveSession):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Player must be online to perform this action"})
	case errors.As(err, &diffErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": diffErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
