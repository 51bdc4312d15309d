/*
cascade.go - Mutually-narrowing filter option resolution

PURPOSE:
  The three filter dropdowns (state, campaign, retailer) narrow each other:
  picking a retailer locks its state and restricts campaigns to its assigned
  set; picking a state restricts both other dimensions; picking a campaign
  restricts retailers to assigned outlets inside its state scope. This file
  computes the mutually consistent option sets for any partial selection.

PRECEDENCE (when more than one dimension is set):
  1. Retailer selected: campaigns narrow to the retailer's assigned set
     (intersected with the resolved state's scope); if no state was chosen
     explicitly, the state resolves to the retailer's own.
  2. Else state selected: retailers by address state, campaigns by scope.
  3. Campaign selected with no retailer: retailers must BOTH sit in the
     campaign's state scope AND appear in its assignment - being in the
     right region does not imply assignment.

  Selection is an explicit value, passed in and returned, never a shared
  mutable filter state. Clearing cascades top-down: clearing the state
  clears campaign and retailer, clearing the campaign clears the retailer,
  clearing the retailer leaves the rest untouched.

  An empty option set for any dimension is a valid result (empty dropdown),
  not an error.
*/
package ledger

import "sort"

// =============================================================================
// SELECTION - Explicit filter value with cascade-clear semantics
// =============================================================================

// Selection is the active (state, campaign, retailer) filter triple.
// The zero value selects nothing.
type Selection struct {
	State      string
	CampaignID string
	RetailerID string
}

// WithState returns the selection with the state changed. Clearing the state
// clears campaign and retailer too: both are defined relative to it.
func (s Selection) WithState(state string) Selection {
	if state == "" {
		return Selection{}
	}
	s.State = state
	return s
}

// WithCampaign returns the selection with the campaign changed. Clearing the
// campaign clears the retailer.
func (s Selection) WithCampaign(id string) Selection {
	if id == "" {
		s.CampaignID = ""
		s.RetailerID = ""
		return s
	}
	s.CampaignID = id
	return s
}

// WithRetailer returns the selection with the retailer changed. Clearing the
// retailer leaves state and campaign untouched.
func (s Selection) WithRetailer(id string) Selection {
	s.RetailerID = id
	return s
}

// =============================================================================
// OPTIONS - Consistent dropdown contents for a selection
// =============================================================================

// Options holds the option sets for the three filter dropdowns.
type Options struct {
	States    []string
	Campaigns []Campaign
	Retailers []Retailer
}

// ResolveOptions computes the option sets for a partial selection and
// returns the (possibly auto-completed) selection alongside: selecting a
// retailer with no explicit state resolves the state to the retailer's own,
// which the set-budget and installment screens pre-fill from.
func ResolveOptions(snap Snapshot, sel Selection, scope Scope) (Options, Selection) {
	if scope == nil {
		scope = AdminScope
	}
	resolved := sel

	var inScope []Campaign
	for _, c := range snap.Campaigns {
		if scope(c) {
			inScope = append(inScope, c)
		}
	}

	retailer := snap.RetailerByID(sel.RetailerID)
	if sel.RetailerID != "" && retailer == nil {
		// Stale retailer selection (e.g. record removed between fetches):
		// behave as if no retailer were selected.
		resolved.RetailerID = ""
	}

	var opts Options
	switch {
	case retailer != nil:
		if resolved.State == "" {
			resolved.State = retailer.Address.State
			opts.States = []string{retailer.Address.State}
		} else {
			opts.States = allStates(snap)
		}
		for _, c := range inScope {
			if retailer.AssignedTo(c.ID) && c.InState(resolved.State) {
				opts.Campaigns = append(opts.Campaigns, c)
			}
		}
		opts.Retailers = retailersInState(snap, resolved.State)

	case resolved.State != "":
		opts.States = allStates(snap)
		for _, c := range inScope {
			if c.InState(resolved.State) {
				opts.Campaigns = append(opts.Campaigns, c)
			}
		}
		opts.Retailers = retailersForCampaign(
			retailersInState(snap, resolved.State), snap, resolved.CampaignID)

	case resolved.CampaignID != "":
		campaign := snap.CampaignByID(resolved.CampaignID)
		if campaign != nil {
			opts.States = append(opts.States, campaign.ScopeStates()...)
		} else {
			opts.States = allStates(snap)
		}
		opts.Campaigns = inScope
		opts.Retailers = retailersForCampaign(snap.Retailers, snap, resolved.CampaignID)

	default:
		opts.States = allStates(snap)
		opts.Campaigns = inScope
		opts.Retailers = append(opts.Retailers, snap.Retailers...)
	}

	sortOptions(&opts)
	return opts, resolved
}

// retailersInState filters retailers by address state.
func retailersInState(snap Snapshot, state string) []Retailer {
	if state == "" {
		return append([]Retailer(nil), snap.Retailers...)
	}
	var out []Retailer
	for _, r := range snap.Retailers {
		if r.Address.State == state {
			out = append(out, r)
		}
	}
	return out
}

// retailersForCampaign keeps retailers that are assigned to the campaign and
// whose state falls inside its scope. No campaign means no narrowing.
func retailersForCampaign(retailers []Retailer, snap Snapshot, campaignID string) []Retailer {
	if campaignID == "" {
		return retailers
	}
	campaign := snap.CampaignByID(campaignID)
	if campaign == nil {
		return nil
	}
	var out []Retailer
	for _, r := range retailers {
		if r.AssignedTo(campaignID) && campaign.InState(r.Address.State) {
			out = append(out, r)
		}
	}
	return out
}

// allStates is the sorted union of retailer address states and campaign
// scope states present in the snapshot.
func allStates(snap Snapshot) []string {
	seen := make(map[string]bool)
	for _, r := range snap.Retailers {
		if r.Address.State != "" {
			seen[r.Address.State] = true
		}
	}
	for _, c := range snap.Campaigns {
		for _, s := range c.ScopeStates() {
			if s != "" {
				seen[s] = true
			}
		}
	}
	states := make([]string, 0, len(seen))
	for s := range seen {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

func sortOptions(opts *Options) {
	sort.Strings(opts.States)
	sort.SliceStable(opts.Campaigns, func(i, j int) bool {
		return opts.Campaigns[i].Name < opts.Campaigns[j].Name
	})
	sort.SliceStable(opts.Retailers, func(i, j int) bool {
		return opts.Retailers[i].ShopName < opts.Retailers[j].ShopName
	})
}
