package quest

import "github.com/morinoparty/dailyquest/server/game/daily"

// DefaultPools returns the built-in quest pools used when no custom
// pool set is supplied.
func DefaultPools() map[daily.Difficulty][]Template {
	return map[daily.Difficulty][]Template{
		daily.DifficultyEasy: {
			{ID: "crafting_arrow", Title: "Fletcher's Friend", Description: "Craft 64 arrows", Target: 64},
			{ID: "mining_coal", Title: "Fuel the Forge", Description: "Mine 32 coal ore", Target: 32},
			{ID: "fishing_cod", Title: "Gone Fishing", Description: "Catch 10 cod", Target: 10},
			{ID: "farming_wheat", Title: "Harvest Time", Description: "Harvest 48 wheat", Target: 48},
		},
		daily.DifficultyNormal: {
			{ID: "mining_iron", Title: "Iron Will", Description: "Smelt 24 iron ingots", Target: 24},
			{ID: "slay_skeleton", Title: "Bone Collector", Description: "Defeat 20 skeletons", Target: 20},
			{ID: "trading_villager", Title: "Market Day", Description: "Trade with villagers 8 times", Target: 8},
		},
		daily.DifficultyHard: {
			{ID: "mining_diamond", Title: "Deep Delver", Description: "Mine 8 diamond ore", Target: 8},
			{ID: "slay_wither_skeleton", Title: "Fortress Raid", Description: "Defeat 15 wither skeletons", Target: 15},
		},
	}
}
