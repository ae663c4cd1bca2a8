// Package werewolf is the werewolf ruleset: a configuration of phases,
// steps and actions over pkg/engine, plus role assignment, death
// resolution and the win condition.
package werewolf

import "github.com/jwebster45206/ludus/pkg/engine"

// GameID identifies this ruleset to the session loader.
const GameID = "werewolf"

// Roles of the werewolf ruleset.
const (
	RoleWerewolf engine.Role = "werewolf"
	RoleVillager engine.Role = "villager"
	RoleSeer     engine.Role = "seer"
	RoleWitch    engine.Role = "witch"
	RoleHunter   engine.Role = "hunter"
	RoleGuard    engine.Role = "guard"
)

// villageRoles are every role on the village side, i.e. everything that
// is not a werewolf.
var villageRoles = []engine.Role{RoleVillager, RoleSeer, RoleWitch, RoleHunter, RoleGuard}

// modifierProtected marks a player protected by the guard for the
// current round. Cleared at night start.
const modifierProtected = "protected"

// DeathCause is why a player died. Last-words eligibility and follow-up
// actions are explicit predicates over (cause, round), never inferred
// from step ordering.
type DeathCause string

const (
	CauseWolfKill    DeathCause = "killed_by_werewolf"
	CauseWitchPoison DeathCause = "poisoned_by_witch"
	CauseVotedOut    DeathCause = "voted_out"
	CauseHunterShot  DeathCause = "shot_by_hunter"
)

// RoleCounts returns the role distribution for a player count. Six
// players get the fixed beginner table; anything else scales wolves with
// the table size and fills the remainder with villagers.
func RoleCounts(players int) map[engine.Role]int {
	if players == 6 {
		return map[engine.Role]int{
			RoleWerewolf: 2,
			RoleVillager: 2,
			RoleSeer:     1,
			RoleWitch:    1,
		}
	}
	counts := map[engine.Role]int{
		RoleWerewolf: max(1, players/4),
	}
	remaining := players - counts[RoleWerewolf]
	// Specials in priority order, while seats remain beyond one villager.
	for _, role := range []engine.Role{RoleSeer, RoleWitch, RoleHunter, RoleGuard} {
		if remaining <= 1 {
			break
		}
		counts[role] = 1
		remaining--
	}
	counts[RoleVillager] = remaining
	return counts
}
