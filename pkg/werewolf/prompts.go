package werewolf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Prompts are the announcement and instruction templates the ruleset
// plays the game with. Wording is configuration: a YAML file can override
// any subset of the defaults. Templates use fmt verbs; the argument lists
// are fixed by the call sites in actions.go.
type Prompts struct {
	Game     GamePrompts     `yaml:"game"`
	Night    NightPrompts    `yaml:"night"`
	Day      DayPrompts      `yaml:"day"`
	Guard    GuardPrompts    `yaml:"guard"`
	Werewolf WerewolfPrompts `yaml:"werewolf"`
	Seer     SeerPrompts     `yaml:"seer"`
	Witch    WitchPrompts    `yaml:"witch"`
	Hunter   HunterPrompts   `yaml:"hunter"`
	Causes   CausePrompts    `yaml:"causes"`
	Persona  PersonaPrompts  `yaml:"persona"`
}

type GamePrompts struct {
	PlayerCount      string `yaml:"player_count"`   // %d
	RoleConfig       string `yaml:"role_config"`    // %s
	PlayersJoined    string `yaml:"players_joined"` // %s
	Assigning        string `yaml:"assigning"`
	YourRole         string `yaml:"your_role"`      // %s
	WolfTeammates    string `yaml:"wolf_teammates"` // %s
	LoneWolf         string `yaml:"lone_wolf"`
	Start            string `yaml:"start"`
	Death            string `yaml:"death"`              // %s, %s (name, cause)
	LastWordsPrompt  string `yaml:"last_words_prompt"`  // %s
	LastWords        string `yaml:"last_words"`         // %s, %s
	LastWordsSilence string `yaml:"last_words_silence"` // %s
	VillageWin       string `yaml:"village_win"`
	WerewolfWin      string `yaml:"werewolf_win"`
	Stopped          string `yaml:"stopped"`
}

type NightPrompts struct {
	Start string `yaml:"start"` // %d
}

type DayPrompts struct {
	Start        string `yaml:"start"` // %d
	SafeNight    string `yaml:"safe_night"`
	AlivePlayers string `yaml:"alive_players"` // %s
	SpeakPrompt  string `yaml:"speak_prompt"`  // %s
	Speech       string `yaml:"speech"`        // %s, %s
	VoteStart    string `yaml:"vote_start"`
	VotePrompt   string `yaml:"vote_prompt"` // %s
	VoteBallot   string `yaml:"vote_ballot"` // %s, %s
	VoteResult   string `yaml:"vote_result"` // %s
	VoteTie      string `yaml:"vote_tie"`
}

type GuardPrompts struct {
	Wake   string `yaml:"wake"`
	Choose string `yaml:"choose"`
	Done   string `yaml:"done"` // %s
	Acted  string `yaml:"acted"`
}

type WerewolfPrompts struct {
	Wake           string `yaml:"wake"` // %s (wolf list)
	LoneWolf       string `yaml:"lone_wolf"`
	DiscussStart   string `yaml:"discuss_start"`
	DiscussPrompt  string `yaml:"discuss_prompt"`  // %s
	DiscussSpeech  string `yaml:"discuss_speech"`  // %s, %s
	DiscussReady   string `yaml:"discuss_ready"`   // %s, %d, %d
	DiscussTimeout string `yaml:"discuss_timeout"` // %d
	VoteStart      string `yaml:"vote_start"`
	VotePrompt     string `yaml:"vote_prompt"` // %s
	VoteResult     string `yaml:"vote_result"` // %s
	VoteTie        string `yaml:"vote_tie"`
	Acted          string `yaml:"acted"`
}

type SeerPrompts struct {
	Wake       string `yaml:"wake"`
	Choose     string `yaml:"choose"`
	ResultWolf string `yaml:"result_wolf"` // %s
	ResultGood string `yaml:"result_good"` // %s
	Acted      string `yaml:"acted"`
}

type WitchPrompts struct {
	Wake         string `yaml:"wake"`
	NightSafe    string `yaml:"night_safe"` // %s
	NightKill    string `yaml:"night_kill"` // %s
	SavePrompt   string `yaml:"save_prompt"`
	SaveDone     string `yaml:"save_done"` // %s
	SaveNotice   string `yaml:"save_notice"`
	PoisonPrompt string `yaml:"poison_prompt"`
	PoisonTarget string `yaml:"poison_target"`
	PoisonDone   string `yaml:"poison_done"` // %s
	PoisonNotice string `yaml:"poison_notice"`
	Acted        string `yaml:"acted"`
}

type HunterPrompts struct {
	DeathTrigger string `yaml:"death_trigger"` // %s
	ShootPrompt  string `yaml:"shoot_prompt"`  // %s
	Skip         string `yaml:"skip"`
	Shot         string `yaml:"shot"` // %s, %s
}

type CausePrompts struct {
	WolfKill    string `yaml:"wolf_kill"`
	WitchPoison string `yaml:"witch_poison"`
	VotedOut    string `yaml:"voted_out"`
	HunterShot  string `yaml:"hunter_shot"`
}

// PersonaPrompts configure automated participants.
type PersonaPrompts struct {
	System             string `yaml:"system"` // %s, %s (name, role)
	ReminderAntiStall  string `yaml:"reminder_anti_stall"`
	ReminderWolfReady  string `yaml:"reminder_wolf_ready"`
	ReminderFirstNight string `yaml:"reminder_first_night"`
}

// Describe renders a death cause for announcements.
func (c CausePrompts) Describe(cause DeathCause) string {
	switch cause {
	case CauseWolfKill:
		return c.WolfKill
	case CauseWitchPoison:
		return c.WitchPoison
	case CauseVotedOut:
		return c.VotedOut
	case CauseHunterShot:
		return c.HunterShot
	}
	return string(cause)
}

// Persona renders the system prompt for an automated player.
func (p PersonaPrompts) Persona(name string, role string) string {
	return fmt.Sprintf(p.System, name, role)
}

// DefaultPrompts returns the built-in English templates.
func DefaultPrompts() *Prompts {
	return &Prompts{
		Game: GamePrompts{
			PlayerCount:      "This game has %d players.",
			RoleConfig:       "Role setup: %s",
			PlayersJoined:    "Players %s have joined the game.",
			Assigning:        "Roles assigned, dealing identity cards...",
			YourRole:         "Your role is: %s",
			WolfTeammates:    "Your werewolf teammates are: %s",
			LoneWolf:         "You are the only werewolf.",
			Start:            "The game begins. Night falls, close your eyes.",
			Death:            "%s died: %s.",
			LastWordsPrompt:  "%s, you may give your last words: ",
			LastWords:        "[last words] %s: %s",
			LastWordsSilence: "%s stays silent, leaving no last words.",
			VillageWin:       "Game over. The village wins!",
			WerewolfWin:      "Game over. The werewolves win!",
			Stopped:          "The game was stopped.",
		},
		Night: NightPrompts{
			Start: "Night %d falls.",
		},
		Day: DayPrompts{
			Start:        "Dawn breaks. It is day %d.",
			SafeNight:    "It was a peaceful night.",
			AlivePlayers: "Players still alive: %s",
			SpeakPrompt:  "%s, please speak: ",
			Speech:       "%s says: %s",
			VoteStart:    "Time to vote.",
			VotePrompt:   "%s, cast your vote: ",
			VoteBallot:   "%s voted for %s.",
			VoteResult:   "The vote falls on %s.",
			VoteTie:      "The vote is tied, nobody is eliminated.",
		},
		Guard: GuardPrompts{
			Wake:   "Guard, wake up.",
			Choose: "Guard, choose a player to protect (not the same player two nights running): ",
			Done:   "You protected %s.",
			Acted:  "The guard has acted.",
		},
		Werewolf: WerewolfPrompts{
			Wake:           "Werewolves, wake up. The werewolves are: %s",
			LoneWolf:       "Lone wolf, no discussion needed; straight to the vote.",
			DiscussStart:   "Werewolves, discuss your target. Answer '0' when you are ready to vote.",
			DiscussPrompt:  "%s, speak or answer '0' to move to the vote: ",
			DiscussSpeech:  "[wolf channel] %s: %s",
			DiscussReady:   "(%s is ready to vote, %d/%d)",
			DiscussTimeout: "Discussion reached the %d round limit, moving to the vote.",
			VoteStart:      "Werewolves, vote for your target.",
			VotePrompt:     "%s, vote for the player to attack: ",
			VoteResult:     "The werewolves agreed to attack %s.",
			VoteTie:        "The werewolf vote is tied, discuss and vote again.",
			Acted:          "The werewolves have acted.",
		},
		Seer: SeerPrompts{
			Wake:       "Seer, wake up.",
			Choose:     "Seer, choose a player to inspect: ",
			ResultWolf: "You inspected %s: a werewolf.",
			ResultGood: "You inspected %s: not a werewolf.",
			Acted:      "The seer has acted.",
		},
		Witch: WitchPrompts{
			Wake:         "Witch, wake up.",
			NightSafe:    "It is a peaceful night: %s was attacked but protected.",
			NightKill:    "Tonight %s was attacked.",
			SavePrompt:   "Witch, will you use your healing potion?",
			SaveDone:     "You saved %s with the healing potion.",
			SaveNotice:   "The witch used the healing potion.",
			PoisonPrompt: "Witch, will you use your poison?",
			PoisonTarget: "Choose the player to poison: ",
			PoisonDone:   "You poisoned %s.",
			PoisonNotice: "The witch used the poison.",
			Acted:        "The witch has acted.",
		},
		Hunter: HunterPrompts{
			DeathTrigger: "%s is the hunter and may take one player along.",
			ShootPrompt:  "%s, choose the player to shoot: ",
			Skip:         "The hunter holds fire.",
			Shot:         "Hunter %s shot %s.",
		},
		Causes: CausePrompts{
			WolfKill:    "killed in the night",
			WitchPoison: "poisoned by the witch",
			VotedOut:    "voted out",
			HunterShot:  "shot by the hunter",
		},
		Persona: PersonaPrompts{
			System: "You are playing a game of werewolf. Your name is %s and your role is %s. " +
				"Play to win for your side. Never reveal your role directly. " +
				"Base your statements on the game record only; in-game bluffing is allowed, " +
				"invented out-of-game backstory is not. " +
				"When asked to choose, answer with exactly one of the offered options and nothing else. " +
				"When asked to speak, output only what you want to say.",
			ReminderAntiStall:  "Add new information or a new argument; do not repeat earlier statements.",
			ReminderWolfReady:  "During the werewolf discussion, answer exactly '0' once you agree on a target; do not discuss endlessly.",
			ReminderFirstNight: "This is the first night. The game has just begun, so do not refer to earlier speeches or events.",
		},
	}
}

// LoadPrompts reads a YAML override file on top of the defaults. Missing
// keys keep their default values.
func LoadPrompts(path string) (*Prompts, error) {
	p := DefaultPrompts()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return p, nil
}
