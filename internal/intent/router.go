package intent

import "strings"

// Action is the router's classification of a user query.
type Action string

const (
	ActionBorrow       Action = "borrow"
	ActionReturn       Action = "return"
	ActionAvailability Action = "check-availability"
	ActionRecommend    Action = "recommend"
	ActionOpenQuery    Action = "open-query"
)

type rule struct {
	action   Action
	triggers []string
}

// defaultRules is the ordered bilingual trigger table. Order is the
// tie-break when a query matches several actions, so borrow wins over
// availability in "I want to borrow and check availability".
var defaultRules = []rule{
	{ActionBorrow, []string{"borrow", "استعارة", "أريد كتاب"}},
	{ActionReturn, []string{"return", "إرجاع", "ارجاع"}},
	{ActionAvailability, []string{"available", "متاح", "متوفر"}},
	{ActionRecommend, []string{"recommend", "انصحني", "اقتراح"}},
}

// Router classifies free-text queries by keyword membership, evaluated in
// fixed priority order. Unmatched queries resolve to ActionOpenQuery.
type Router struct {
	rules []rule
}

func NewRouter() *Router {
	return &Router{rules: defaultRules}
}

// Classify returns exactly one action for the query. Pure: no side effects,
// no error condition.
func (r *Router) Classify(query string) Action {
	q := strings.ToLower(query)
	for _, rl := range r.rules {
		for _, t := range rl.triggers {
			if strings.Contains(q, t) {
				return rl.action
			}
		}
	}
	return ActionOpenQuery
}
