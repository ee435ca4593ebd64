package daily

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Difficulty is the closed set of daily quest difficulty buckets.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
	DifficultyEvent  Difficulty = "event"
)

// ParseDifficulty maps a raw difficulty string (case-insensitive) to
// the closed enum. Unrecognized input is rejected.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(strings.ToLower(s)) {
	case DifficultyEasy:
		return DifficultyEasy, true
	case DifficultyNormal:
		return DifficultyNormal, true
	case DifficultyHard:
		return DifficultyHard, true
	case DifficultyEvent:
		return DifficultyEvent, true
	}
	return "", false
}

// QuestInfo is one extracted daily quest record, produced fresh per
// request and never persisted.
type QuestInfo struct {
	QuestID            string `json:"questId"`
	QuestPackage       string `json:"questPackage"`
	Difficulty         string `json:"difficulty"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	TaskCompleted      bool   `json:"taskCompleted"`
	QuestCompleted     bool   `json:"questCompleted"`
	ProgressPercentage int    `json:"progressPercentage"`
}

// Fragment is one decoded objective entry belonging to a quest
// instance. A quest instance is reassembled from every fragment sharing
// the same QuestPackage before a QuestInfo is emitted.
type Fragment struct {
	QuestID      string
	QuestPackage string
	Difficulty   Difficulty
	Section      string
	Fields       map[string]string
}

// EntryDecoder is the versioned contract for the quest engine's opaque
// per-objective encoding. Decode returns the fragment for a recognized
// daily-quest entry, false for entries outside the daily-quest domain,
// and an error for entries that are in-domain but malformed.
type EntryDecoder interface {
	Decode(label, value string) (Fragment, bool, error)
}

// V1 objective entry convention.
//
// Label:  <pool>-<difficulty>-<questId>.<section>
//         pool is the fixed quest registry package path, e.g.
//         "NotEnoughQuests-DailyQuest-Quests-Easy-crafting_arrow.state".
// Value:  semicolon-joined key:value pairs.
// Sections and their recognized keys:
//         display  → title, description
//         state    → taskCompleted, questCompleted (booleans)
//         progress → current, target (integers, target > 0)
// A section may carry keys belonging to another section (some engine
// builds pack completion flags and counters into one entry); merging is
// key-driven, so both layouts decode identically.
type V1Decoder struct {
	// PoolPrefix is the quest registry package path that identifies
	// daily-quest entries, without the trailing difficulty segment.
	PoolPrefix string
}

// Section names of the v1 convention. Exported because the in-process
// quest engine writes entries in the same format the extractor reads.
const (
	SectionDisplay  = "display"
	SectionState    = "state"
	SectionProgress = "progress"
)

// Decode implements EntryDecoder for the v1 convention.
func (d V1Decoder) Decode(label, value string) (Fragment, bool, error) {
	prefix := d.PoolPrefix + "-"
	if !strings.HasPrefix(label, prefix) {
		return Fragment{}, false, nil
	}

	base, section, ok := strings.Cut(label, ".")
	if !ok {
		return Fragment{}, false, nil
	}
	switch section {
	case SectionDisplay, SectionState, SectionProgress:
	default:
		return Fragment{}, false, nil
	}

	rest := strings.TrimPrefix(base, prefix)
	diffSeg, questID, ok := strings.Cut(rest, "-")
	if !ok || questID == "" {
		return Fragment{QuestPackage: base}, false, fmt.Errorf("daily: malformed quest label %q", label)
	}
	diff, ok := ParseDifficulty(diffSeg)
	if !ok {
		return Fragment{QuestPackage: base}, false, fmt.Errorf("daily: unknown difficulty segment %q in label %q", diffSeg, label)
	}

	fields := make(map[string]string)
	for _, pair := range strings.Split(value, ";") {
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, ":")
		if !ok || k == "" {
			return Fragment{QuestPackage: base}, false, fmt.Errorf("daily: malformed objective value %q for label %q", value, label)
		}
		fields[k] = v
	}

	return Fragment{
		QuestID:      questID,
		QuestPackage: base,
		Difficulty:   diff,
		Section:      section,
		Fields:       fields,
	}, true, nil
}

// Extract decodes an opaque objective state map into QuestInfo records.
// Entries outside the daily-quest domain are ignored; a malformed entry
// poisons only its own quest instance. Records are emitted in order of
// first-encountered label, so callers that need a stable order pass the
// labels pre-sorted.
func Extract(labels []string, objectives map[string]string, dec EntryDecoder) []QuestInfo {
	type instance struct {
		frags  []Fragment
		broken bool
	}
	order := make([]string, 0, len(labels))
	instances := make(map[string]*instance)

	for _, label := range labels {
		value, ok := objectives[label]
		if !ok {
			continue
		}
		frag, ok, err := dec.Decode(label, value)
		if err != nil {
			// Malformed in-domain entry: poison the instance it
			// belongs to if identifiable, otherwise drop the entry.
			if frag.QuestPackage != "" {
				inst := instances[frag.QuestPackage]
				if inst == nil {
					inst = &instance{}
					instances[frag.QuestPackage] = inst
					order = append(order, frag.QuestPackage)
				}
				inst.broken = true
			}
			continue
		}
		if !ok {
			continue
		}
		inst := instances[frag.QuestPackage]
		if inst == nil {
			inst = &instance{}
			instances[frag.QuestPackage] = inst
			order = append(order, frag.QuestPackage)
		}
		inst.frags = append(inst.frags, frag)
	}

	out := make([]QuestInfo, 0, len(order))
	for _, key := range order {
		inst := instances[key]
		if inst.broken || len(inst.frags) == 0 {
			continue
		}
		info, ok := assemble(inst.frags)
		if !ok {
			continue
		}
		out = append(out, info)
	}
	return out
}

// ExtractMap is Extract for plain maps. Labels are visited in sorted
// order so repeated requests over the same state produce the same
// record order.
func ExtractMap(objectives map[string]string, dec EntryDecoder) []QuestInfo {
	labels := make([]string, 0, len(objectives))
	for label := range objectives {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return Extract(labels, objectives, dec)
}

// assemble merges one quest instance's fragments into a record. Merging
// is key-driven: recognized keys are honored from any section.
func assemble(frags []Fragment) (QuestInfo, bool) {
	info := QuestInfo{
		QuestID:      frags[0].QuestID,
		QuestPackage: frags[0].QuestPackage,
		Difficulty:   string(frags[0].Difficulty),
	}
	var current, target int

	for _, f := range frags {
		for k, v := range f.Fields {
			switch k {
			case "title":
				info.Title = v
			case "description":
				info.Description = v
			case "taskCompleted":
				b, err := strconv.ParseBool(v)
				if err != nil {
					return QuestInfo{}, false
				}
				info.TaskCompleted = b
			case "questCompleted":
				b, err := strconv.ParseBool(v)
				if err != nil {
					return QuestInfo{}, false
				}
				info.QuestCompleted = b
			case "current":
				n, err := strconv.Atoi(v)
				if err != nil {
					return QuestInfo{}, false
				}
				current = n
			case "target":
				n, err := strconv.Atoi(v)
				if err != nil {
					return QuestInfo{}, false
				}
				target = n
			}
		}
	}

	info.ProgressPercentage = progressPercentage(current, target, info.TaskCompleted)
	return info, true
}

// progressPercentage derives the 0-100 progress value. A completed task
// always reads 100; with no counter entry an incomplete task reads 0.
func progressPercentage(current, target int, taskCompleted bool) int {
	if taskCompleted {
		return 100
	}
	if target <= 0 {
		return 0
	}
	pct := current * 100 / target
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
