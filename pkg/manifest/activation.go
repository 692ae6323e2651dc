// SPDX-License-Identifier: MPL-2.0

package manifest

import "strings"

// EventCategory classifies an activation event by its trigger kind.
type EventCategory string

const (
	EventCategoryLanguage   EventCategory = "language"
	EventCategoryCommand    EventCategory = "command"
	EventCategoryDebug      EventCategory = "debug"
	EventCategoryFilesystem EventCategory = "filesystem"
	EventCategoryView       EventCategory = "view"
	EventCategoryWorkspace  EventCategory = "workspace"
	EventCategoryAlwaysOn   EventCategory = "always-on"
	EventCategoryStartup    EventCategory = "startup"
	EventCategoryOther      EventCategory = "other"
)

// EventCategories returns every defined category in stable display order.
func EventCategories() []EventCategory {
	return []EventCategory{
		EventCategoryLanguage,
		EventCategoryCommand,
		EventCategoryDebug,
		EventCategoryFilesystem,
		EventCategoryView,
		EventCategoryWorkspace,
		EventCategoryAlwaysOn,
		EventCategoryStartup,
		EventCategoryOther,
	}
}

// ClassifyActivationEvent maps an activation-event string to exactly one
// category using the ordered rules from taxonomy.toml: the first matching
// rule wins, and an event matching no rule classifies as "other".
func ClassifyActivationEvent(event string) EventCategory {
	for _, rule := range loadedTaxonomy.ActivationRules {
		switch {
		case rule.Prefix != "" && strings.HasPrefix(event, rule.Prefix):
			return EventCategory(rule.Category)
		case rule.Literal != "" && event == rule.Literal:
			return EventCategory(rule.Category)
		}
	}
	return EventCategoryOther
}
