package daily

import (
	"fmt"
	"strings"
)

// Quest package path constants shared with the quest engine. These are
// the namespace the reroll and quest-selection events live in and the
// pool path prefix the extractor recognizes.
const (
	RerollPackage        = "NotEnoughQuests-DailyQuest"
	RerollEvent          = "Reroll#start"
	QuestRegistryPackage = "NotEnoughQuests-DailyQuest-Quests"
)

// difficultySegment renders a Difficulty as its pool path segment
// ("easy" → "Easy").
func difficultySegment(d Difficulty) string {
	s := string(d)
	return strings.ToUpper(s[:1]) + s[1:]
}

// QuestPackagePath builds the fully-qualified pool path for a quest
// instance, e.g. "NotEnoughQuests-DailyQuest-Quests-Easy-crafting_arrow".
func QuestPackagePath(d Difficulty, questID string) string {
	return fmt.Sprintf("%s-%s-%s", QuestRegistryPackage, difficultySegment(d), questID)
}

// PoolPathPrefix returns the label prefix covering every quest instance
// of one difficulty.
func PoolPathPrefix(d Difficulty) string {
	return fmt.Sprintf("%s-%s-", QuestRegistryPackage, difficultySegment(d))
}

// EntryLabel builds the v1 objective label for one section of a quest
// instance.
func EntryLabel(questPackage, section string) string {
	return questPackage + "." + section
}

// EncodeFields joins key/value pairs into a v1 objective value string.
// pairs must have even length.
func EncodeFields(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(';')
		}
		b.WriteString(pairs[i])
		b.WriteByte(':')
		b.WriteString(pairs[i+1])
	}
	return b.String()
}
